package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"videorag/ingest"
	"videorag/model"
	"videorag/objectstore"
	"videorag/store"
	"videorag/types"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
)

func init() {
	mustLoadEnvVariables()
}

func main() {
	var (
		transcript = flag.String("transcript", "", "transcription result, local path or s3:// uri")
		framesDir  = flag.String("frames", "", "directory with extracted 1-fps frames")
		framesURI  = flag.String("frames-uri", "", "s3 prefix the frames were uploaded to")
		source     = flag.String("source", "", "short video label")
		sourceURL  = flag.String("sourceurl", "", "canonical locator of the video")
	)
	flag.Parse()

	if *source == "" || (*transcript == "" && *framesDir == "") {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := types.ConfigFromEnv()

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal("error loading AWS config: ", err)
	}

	pool, err := store.NewPostgresStore(ctx, pgConnStr(), cfg.EmbeddingDimension)
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
	}
	defer pool.Close()

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables: ", err)
	}

	embedder := model.NewBedrockEmbedder(bedrockruntime.NewFromConfig(awsCfg), cfg.EmbeddingModelID, cfg.EmbeddingDimension)
	objects := objectstore.NewReader(s3.NewFromConfig(awsCfg))

	pipeline := ingest.NewPipeline(pool, embedder, objects, cfg.FrameThreshold, cfg.MaxSegmentChars)
	err = pipeline.Run(ctx, ingest.IngestInput{
		Transcript:    *transcript,
		FramesDir:     *framesDir,
		FramesBaseURI: *framesURI,
		Source:        *source,
		SourceURL:     *sourceURL,
	})
	if err != nil {
		log.Fatal("ingest failed: ", err)
	}
	log.Printf("ingest of %s complete", *source)
}

func pgConnStr() string {
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
}
