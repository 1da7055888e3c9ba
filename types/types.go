package types

import (
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

const (
	ItemPronunciation = "pronunciation"
	ItemPunctuation   = "punctuation"
)

// RecognizedItem is one token of speech-recognition output. Punctuation
// items carry no start time.
type RecognizedItem struct {
	Kind      string
	StartTime *float64
	EndTime   float64
	Speaker   string
	Text      string
}

// TranscriptSegment is a speaker-coherent piece of transcript anchored to
// an integer second offset into the source media.
type TranscriptSegment struct {
	StartSecond int
	Speaker     string
	Text        string
}

// FrameEmbedding pairs a frame's 1-based extraction index (equal to its
// second at 1 fps) with the frame's embedding vector.
type FrameEmbedding struct {
	Index  int
	Vector []float32
}

// EmbeddingRecord is the durable unit stored in the vector index. Created
// once at ingest, never mutated afterwards.
type EmbeddingRecord struct {
	ID          uuid.UUID
	Embedding   []float32
	ContentType ContentType
	Chunks      string
	SourceURL   string
	Source      string
	Topic       string
	Language    string
	Time        int
	Date        string
	Metadata    map[string]any
}

// NewRecord seeds a record with a fresh id and the current timestamp.
func NewRecord(embedding []float32, ct ContentType) EmbeddingRecord {
	return EmbeddingRecord{
		ID:          uuid.New(),
		Embedding:   embedding,
		ContentType: ct,
		Date:        time.Now().Format(time.RFC3339),
		Metadata:    map[string]any{},
	}
}

// SearchResult is one ranked row from a similarity search. Similarity is
// populated for cosine searches, Distance for l2.
type SearchResult struct {
	Record     EmbeddingRecord
	Similarity float64
	Distance   float64
}

// Document is the retrieval-facing view of a search result: chunk text
// for text records, the frame's storage locator for image records.
type Document struct {
	ID          string         `json:"id"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// Filter is a single equality predicate for similarity search. Multiple
// filters are ANDed together.
type Filter struct {
	Key   string
	Value string
}
