package ingest

import (
	"context"
	"log/slog"

	"videorag/model"
	"videorag/types"
)

// Frame is one selected keyframe ready for embedding: its second into
// the media, the short file label, the storage locator of the image and
// the image bytes themselves.
type Frame struct {
	Second    int
	Source    string
	SourceURL string
	Data      []byte
}

// RecordBuilder turns transcript segments and selected frames into
// embedding records, one provider call per unit. A failed call skips
// that unit with a warning instead of aborting the batch.
type RecordBuilder struct {
	embedder model.Embedder
	logger   *slog.Logger
}

func NewRecordBuilder(embedder model.Embedder) *RecordBuilder {
	return &RecordBuilder{
		embedder: embedder,
		logger:   slog.Default(),
	}
}

// BuildTextRecords embeds each transcript segment. sourceURL is the
// owning video's locator, source its short label.
func (b *RecordBuilder) BuildTextRecords(ctx context.Context, segments []types.TranscriptSegment, sourceURL, source string) []types.EmbeddingRecord {
	records := make([]types.EmbeddingRecord, 0, len(segments))
	for _, seg := range segments {
		embedding, err := b.embedder.EmbedText(ctx, seg.Text)
		if err != nil {
			b.logger.Warn("skipping segment", "second", seg.StartSecond, "error", err)
			continue
		}
		rec := types.NewRecord(embedding, types.ContentText)
		rec.Chunks = seg.Text
		rec.SourceURL = sourceURL
		rec.Source = source
		rec.Time = seg.StartSecond
		rec.Metadata["speaker"] = seg.Speaker
		rec.Metadata["second"] = seg.StartSecond
		records = append(records, rec)
	}
	return records
}

// BuildFrameRecords embeds each selected frame. The record's sourceurl
// points at the frame image itself so retrieval can fetch it back.
func (b *RecordBuilder) BuildFrameRecords(ctx context.Context, frames []Frame) []types.EmbeddingRecord {
	records := make([]types.EmbeddingRecord, 0, len(frames))
	for _, frame := range frames {
		embedding, err := b.embedder.EmbedImage(ctx, frame.Data)
		if err != nil {
			b.logger.Warn("skipping frame", "second", frame.Second, "error", err)
			continue
		}
		rec := types.NewRecord(embedding, types.ContentImage)
		rec.SourceURL = frame.SourceURL
		rec.Source = frame.Source
		rec.Time = frame.Second
		rec.Metadata["second"] = frame.Second
		records = append(records, rec)
	}
	return records
}
