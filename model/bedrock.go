package model

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockEmbedder creates multimodal embeddings with an Amazon Titan
// model through the Bedrock runtime. The same model id serves both text
// and image inputs.
type BedrockEmbedder struct {
	client    *bedrockruntime.Client
	modelID   string
	dimension int
}

type titanEmbeddingConfig struct {
	OutputEmbeddingLength int `json:"outputEmbeddingLength"`
}

type titanEmbeddingRequest struct {
	InputText       string               `json:"inputText,omitempty"`
	InputImage      string               `json:"inputImage,omitempty"`
	EmbeddingConfig titanEmbeddingConfig `json:"embeddingConfig"`
}

type titanEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func NewBedrockEmbedder(client *bedrockruntime.Client, modelID string, dimension int) *BedrockEmbedder {
	return &BedrockEmbedder{
		client:    client,
		modelID:   modelID,
		dimension: dimension,
	}
}

func (e *BedrockEmbedder) Dimension() int {
	return e.dimension
}

func (e *BedrockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.invoke(ctx, titanEmbeddingRequest{
		InputText:       text,
		EmbeddingConfig: titanEmbeddingConfig{OutputEmbeddingLength: e.dimension},
	})
}

func (e *BedrockEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return e.invoke(ctx, titanEmbeddingRequest{
		InputImage:      base64.StdEncoding.EncodeToString(image),
		EmbeddingConfig: titanEmbeddingConfig{OutputEmbeddingLength: e.dimension},
	})
}

func (e *BedrockEmbedder) invoke(ctx context.Context, req titanEmbeddingRequest) ([]float32, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, &ProviderError{Model: e.modelID, Err: err}
	}

	var resp titanEmbeddingResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, &ProviderError{Model: e.modelID, Err: fmt.Errorf("empty embedding in response")}
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
