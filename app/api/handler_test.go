package api

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/api/v1/query", NewQueryHandler(nil).HandleQuery)
	return app
}

func postQuery(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHandleQueryInvalidMethod(t *testing.T) {
	app := newTestApp()

	code, body := postQuery(t, app, `{"query": "robot", "method": "summarize"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "invalid method")
}

func TestHandleQueryMissingQuery(t *testing.T) {
	app := newTestApp()

	code, body := postQuery(t, app, `{"method": "retrieve"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, body, "Query")
}

func TestHandleQueryBadJSON(t *testing.T) {
	app := newTestApp()

	code, _ := postQuery(t, app, `{"query": `)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
