package agent

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"videorag/model"
	"videorag/store"
	"videorag/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/pkoukk/tiktoken-go"
)

const instructionTemplate = `Answer the user's questions based on the below context.
If the context doesn't contain any relevant information to the question, don't make something up and just say "I don't know".
For each statement in your response provide a [document_number] where n is the document number that provides the response. Dont include the actual content, just the [document_number].

<question>
%s
</question>

<documents>
`

// ObjectReader fetches stored objects by their locator. Satisfied by
// objectstore.Reader.
type ObjectReader interface {
	ReadBytes(ctx context.Context, uri string) ([]byte, error)
}

// Retriever answers similarity queries over the vector store and can
// additionally ground an LLM answer in the retrieved documents.
type Retriever struct {
	logger   *slog.Logger
	store    store.VectorStorer
	embedder model.Embedder
	llm      *bedrockruntime.Client
	objects  ObjectReader
	cfg      types.Config
}

func NewRetriever(storer store.VectorStorer, embedder model.Embedder, llm *bedrockruntime.Client, objects ObjectReader, cfg types.Config) *Retriever {
	return &Retriever{
		logger:   slog.Default(),
		store:    storer,
		embedder: embedder,
		llm:      llm,
		objects:  objects,
		cfg:      cfg,
	}
}

// Retrieve embeds the query and returns the top-k matching documents.
// Text rows surface their chunk text, image rows their frame locator.
func (r *Retriever) Retrieve(ctx context.Context, params types.QueryParams) ([]types.Document, error) {
	how := params.How
	if how == "" {
		how = r.cfg.DefaultMethod
	}
	k := params.K
	if k == 0 {
		k = r.cfg.DefaultK
	}

	var filters []types.Filter
	if params.VideoID != "" {
		filters = append(filters, types.Filter{Key: "source", Value: params.VideoID})
	}
	if params.ContentType != "" {
		filters = append(filters, types.Filter{Key: "content_type", Value: params.ContentType})
	}

	vector, err := r.embedder.EmbedText(ctx, params.Query)
	if err != nil {
		return nil, err
	}

	results, err := r.store.SimilaritySearch(ctx, vector, how, k, filters)
	if err != nil {
		return nil, err
	}
	log.Printf("[RETRIEVE] query=%q how=%s k=%d filters=%d results=%d", params.Query, how, k, len(filters), len(results))

	docs := make([]types.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, toDocument(res, how))
	}
	return docs, nil
}

func toDocument(res types.SearchResult, how string) types.Document {
	metadata := make(map[string]any, len(res.Record.Metadata)+3)
	for k, v := range res.Record.Metadata {
		metadata[k] = v
	}
	metadata["content_type"] = string(res.Record.ContentType)
	metadata["source"] = res.Record.SourceURL
	if how == "cosine" {
		metadata["similarity"] = res.Similarity
	} else {
		metadata["distance"] = res.Distance
	}

	doc := types.Document{
		ID:       res.Record.ID.String(),
		Metadata: metadata,
	}
	if res.Record.ContentType == types.ContentImage {
		doc.PageContent = res.Record.SourceURL
	} else {
		doc.PageContent = res.Record.Chunks
	}
	return doc
}

// RetrieveGenerate retrieves documents and asks the generation model for
// an answer grounded in them. A failed image fetch aborts the whole call.
func (r *Retriever) RetrieveGenerate(ctx context.Context, params types.QueryParams) ([]types.Document, string, error) {
	docs, err := r.Retrieve(ctx, params)
	if err != nil {
		return nil, "", err
	}

	modelID := params.ModelID
	if modelID == "" {
		modelID = r.cfg.DefaultModelID
	}

	userMessage := fmt.Sprintf(instructionTemplate, params.Query)
	blocks := []brtypes.ContentBlock{
		&brtypes.ContentBlockMemberText{Value: userMessage},
	}
	for _, doc := range docs {
		block, err := r.contentBlock(ctx, doc)
		if err != nil {
			return nil, "", err
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: "</documents>"})

	if count, err := countTokens(userMessage); err == nil {
		log.Printf("[GENERATE] instruction size in tokens: %d", count)
	}

	start := time.Now()
	answer, err := r.converse(ctx, modelID, blocks)
	if err != nil {
		return nil, "", err
	}
	log.Printf("[GENERATE] model %s answered in %v", modelID, time.Since(start))

	return docs, answer, nil
}

func (r *Retriever) contentBlock(ctx context.Context, doc types.Document) (brtypes.ContentBlock, error) {
	if doc.Metadata["content_type"] != string(types.ContentImage) {
		return &brtypes.ContentBlockMemberText{Value: doc.PageContent}, nil
	}

	locator, _ := doc.Metadata["source"].(string)
	data, err := r.objects.ReadBytes(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image document: %w", err)
	}
	return &brtypes.ContentBlockMemberImage{
		Value: brtypes.ImageBlock{
			Format: imageFormat(locator),
			Source: &brtypes.ImageSourceMemberBytes{Value: data},
		},
	}, nil
}

func imageFormat(locator string) brtypes.ImageFormat {
	ext := strings.ToLower(strings.TrimPrefix(locator[strings.LastIndex(locator, ".")+1:], "."))
	switch ext {
	case "png":
		return brtypes.ImageFormatPng
	case "gif":
		return brtypes.ImageFormatGif
	case "webp":
		return brtypes.ImageFormatWebp
	default:
		// extraction emits jpg
		return brtypes.ImageFormatJpeg
	}
}

func (r *Retriever) converse(ctx context.Context, modelID string, blocks []brtypes.ContentBlock) (string, error) {
	out, err := r.llm.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		Messages: []brtypes.Message{
			{
				Role:    brtypes.ConversationRoleUser,
				Content: blocks,
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(1024),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	message, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected model output type %T", out.Output)
	}
	for _, content := range message.Value.Content {
		if text, ok := content.(*brtypes.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("no text content in model output")
}

func countTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
