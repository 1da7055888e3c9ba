package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// QueryParams is the body of a retrieval request. Method selects between
// plain retrieval and retrieval plus a generated answer.
type QueryParams struct {
	Query       string `json:"query" validate:"required"`
	Method      string `json:"method"`
	VideoID     string `json:"video_id"`
	ContentType string `json:"content_type" validate:"omitempty,oneof=text image"`
	How         string `json:"how" validate:"omitempty,oneof=cosine l2"`
	K           int    `json:"k" validate:"omitempty,gte=1"`
	ModelID     string `json:"model_id"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// QueryResponse mirrors the wire shape of a successful request: docs
// always, response only for retrieve_generate.
type QueryResponse struct {
	Docs     []Document `json:"docs"`
	Response string     `json:"response,omitempty"`
}
