package ingest

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// CosineSimilarity returns dot(a,b) / (|a| * |b|). A length mismatch or
// a zero-magnitude vector is an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// AdjacentSimilarities computes the similarity of each consecutive pair
// of vectors in the sequence.
func AdjacentSimilarities(vectors [][]float32) ([]float64, error) {
	if len(vectors) < 2 {
		return nil, nil
	}
	sims := make([]float64, 0, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		sim, err := CosineSimilarity(vectors[i], vectors[i+1])
		if err != nil {
			return nil, err
		}
		sims = append(sims, sim)
	}
	return sims, nil
}

// SelectKeyframes reduces a chronological frame embedding sequence to the
// indices of visually distinct frames. It walks the sequence carrying an
// anchor frame: once a frame's similarity to the anchor drops below
// threshold, the anchor index is recorded and that frame becomes the new
// anchor. The final anchor is always included. Frames with degenerate
// embeddings are skipped with a warning.
func SelectKeyframes(vectors [][]float32, threshold float64) []int {
	if len(vectors) == 0 {
		return nil
	}

	var selected []int
	currentIndex := 0
	for index := range vectors {
		sim, err := CosineSimilarity(vectors[currentIndex], vectors[index])
		if err != nil {
			log.Printf("[FRAMES] skipping frame %d: %v", index, err)
			continue
		}
		if sim < threshold {
			selected = append(selected, currentIndex)
			currentIndex = index
		}
	}
	return append(selected, currentIndex)
}

// FrameSecond extracts the second encoded in an extracted frame filename
// such as frames/sec_00042.jpg.
func FrameSecond(path string) (int, error) {
	name := filepath.Base(path)
	rest := strings.TrimPrefix(name, "sec_")
	if rest == name {
		return 0, fmt.Errorf("no second in frame name %s", name)
	}
	rest = strings.TrimSuffix(rest, filepath.Ext(rest))
	second, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad second in frame name %s: %w", name, err)
	}
	return second, nil
}

// SortFrameFiles orders extraction output by the second embedded in each
// filename. Files without a parseable second sort last in name order.
func SortFrameFiles(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, erri := FrameSecond(sorted[i])
		sj, errj := FrameSecond(sorted[j])
		if erri != nil || errj != nil {
			if (erri == nil) != (errj == nil) {
				return erri == nil
			}
			return sorted[i] < sorted[j]
		}
		return si < sj
	})
	return sorted
}
