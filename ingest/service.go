package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"videorag/model"
	"videorag/objectstore"
	"videorag/store"
)

// IngestInput names everything needed to ingest one video: the
// transcription result (local path or s3:// uri), the directory of
// extracted 1-fps frames, and the video's identity in the index.
type IngestInput struct {
	Transcript    string
	FramesDir     string
	FramesBaseURI string
	Source        string
	SourceURL     string
}

// Pipeline ingests a processed video: transcript segments and selected
// keyframes become embedding records in the vector store. The text and
// frame phases are independent; one failing does not block the other.
type Pipeline struct {
	logger    *slog.Logger
	store     store.VectorStorer
	builder   *RecordBuilder
	embedder  model.Embedder
	objects   *objectstore.Reader
	threshold float64
	maxChars  int
}

func NewPipeline(storer store.VectorStorer, embedder model.Embedder, objects *objectstore.Reader, threshold float64, maxChars int) *Pipeline {
	return &Pipeline{
		logger:    slog.Default(),
		store:     storer,
		builder:   NewRecordBuilder(embedder),
		embedder:  embedder,
		objects:   objects,
		threshold: threshold,
		maxChars:  maxChars,
	}
}

func (p *Pipeline) Run(ctx context.Context, in IngestInput) error {
	textErr := p.ingestTranscript(ctx, in)
	if textErr != nil {
		p.logger.Warn("text phase failed, continuing with frames", "source", in.Source, "error", textErr)
	}

	frameErr := p.ingestFrames(ctx, in)
	if frameErr != nil {
		p.logger.Warn("frame phase failed", "source", in.Source, "error", frameErr)
	}

	return errors.Join(textErr, frameErr)
}

func (p *Pipeline) ingestTranscript(ctx context.Context, in IngestInput) error {
	if in.Transcript == "" {
		p.logger.Info("no transcript given, skipping text phase", "source", in.Source)
		return nil
	}

	data, err := p.readTranscript(ctx, in.Transcript)
	if err != nil {
		return err
	}

	items, err := ParseTranscribeOutput(data)
	if err != nil {
		return err
	}

	segments, duration, err := ProcessTranscript(items, p.maxChars)
	if err != nil {
		return err
	}
	log.Printf("[INGEST] %s: %d transcript chunks over %.1fs", in.Source, len(segments), duration)

	records := p.builder.BuildTextRecords(ctx, segments, in.SourceURL, in.Source)
	if err := p.store.Insert(ctx, records); err != nil {
		return err
	}
	log.Printf("[INGEST] %s: stored %d text records", in.Source, len(records))
	return nil
}

func (p *Pipeline) ingestFrames(ctx context.Context, in IngestInput) error {
	if in.FramesDir == "" {
		p.logger.Info("no frames dir given, skipping frame phase", "source", in.Source)
		return nil
	}

	files, err := p.listFrameFiles(in.FramesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		p.logger.Info("no frames found", "dir", in.FramesDir)
		return nil
	}

	// dense pass: embed every frame in order, selection is
	// order-dependent
	var images [][]byte
	var kept []string
	var seconds []int
	var vectors [][]float32
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read frame %s: %w", file, err)
		}
		vec, err := p.embedder.EmbedImage(ctx, data)
		if err != nil {
			p.logger.Warn("skipping frame", "file", file, "error", err)
			continue
		}
		images = append(images, data)
		kept = append(kept, file)
		// extraction names frames by second; an unparseable name falls
		// back to the file's 1-based position in the listing
		second, err := FrameSecond(file)
		if err != nil {
			second = i + 1
		}
		seconds = append(seconds, second)
		vectors = append(vectors, vec)
	}

	selected := SelectKeyframes(vectors, p.threshold)
	log.Printf("[INGEST] %s: selected %d of %d frames", in.Source, len(selected), len(kept))

	frames := make([]Frame, 0, len(selected))
	for _, idx := range selected {
		file := kept[idx]
		frames = append(frames, Frame{
			Second:    seconds[idx],
			Source:    filepath.Base(file),
			SourceURL: p.frameURL(in, file),
			Data:      images[idx],
		})
	}

	records := p.builder.BuildFrameRecords(ctx, frames)
	if err := p.store.Insert(ctx, records); err != nil {
		return err
	}
	log.Printf("[INGEST] %s: stored %d image records", in.Source, len(records))
	return nil
}

func (p *Pipeline) readTranscript(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "s3://") {
		if p.objects == nil {
			return nil, fmt.Errorf("no object store configured for %s", location)
		}
		return p.objects.ReadBytes(ctx, location)
	}
	return os.ReadFile(location)
}

func (p *Pipeline) listFrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return SortFrameFiles(files), nil
}

func (p *Pipeline) frameURL(in IngestInput, file string) string {
	if in.FramesBaseURI != "" {
		return strings.TrimSuffix(in.FramesBaseURI, "/") + "/" + filepath.Base(file)
	}
	return file
}
