package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"videorag/app/agent"
	"videorag/app/api"
	"videorag/model"
	"videorag/objectstore"
	"videorag/store"
	"videorag/types"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := types.ConfigFromEnv()

	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
	pool, err := store.NewPostgresStore(ctx, connStr, cfg.EmbeddingDimension)
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	count, err := pool.Count(ctx)
	if err != nil {
		log.Fatal("error to reach embeddings table", err)
		return
	}
	s.logger.Info("connected to vector store", "records", count)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal("error loading AWS config", err)
		return
	}

	var (
		bedrock   = bedrockruntime.NewFromConfig(awsCfg)
		embedder  = model.NewBedrockEmbedder(bedrock, cfg.EmbeddingModelID, cfg.EmbeddingDimension)
		objects   = objectstore.NewReader(s3.NewFromConfig(awsCfg))
		retriever = agent.NewRetriever(pool, embedder, bedrock, objects, cfg)

		app          = fiber.New(config)
		checkHandler = api.NewCheckHandler(pool)
		queryHandler = api.NewQueryHandler(retriever)
		check        = app.Group("/check")
		apiv1        = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/query", queryHandler.HandleQuery)

	err = app.Listen(s.listenAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
