package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"videorag/types"
)

// Wire shape of an Amazon Transcribe result document. Times come back as
// strings and punctuation items have none.
type transcribeAlternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

type transcribeItem struct {
	StartTime    string                  `json:"start_time,omitempty"`
	EndTime      string                  `json:"end_time,omitempty"`
	Type         string                  `json:"type"`
	SpeakerLabel string                  `json:"speaker_label,omitempty"`
	Alternatives []transcribeAlternative `json:"alternatives"`
}

type transcribeResult struct {
	Results struct {
		Items []transcribeItem `json:"items"`
	} `json:"results"`
}

// ParseTranscribeOutput decodes a raw transcription result document into
// recognized items.
func ParseTranscribeOutput(data []byte) ([]types.RecognizedItem, error) {
	var result transcribeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	items := make([]types.RecognizedItem, 0, len(result.Results.Items))
	for i, raw := range result.Results.Items {
		if len(raw.Alternatives) == 0 || raw.Alternatives[0].Content == "" {
			return nil, &MalformedItemError{Index: i}
		}
		item := types.RecognizedItem{
			Kind:    raw.Type,
			Speaker: raw.SpeakerLabel,
			Text:    raw.Alternatives[0].Content,
		}
		if raw.StartTime != "" {
			start, err := strconv.ParseFloat(raw.StartTime, 64)
			if err != nil {
				return nil, &MalformedItemError{Index: i}
			}
			item.StartTime = &start
		}
		if raw.EndTime != "" {
			end, err := strconv.ParseFloat(raw.EndTime, 64)
			if err != nil {
				return nil, &MalformedItemError{Index: i}
			}
			item.EndTime = end
		}
		items = append(items, item)
	}
	return items, nil
}

// ProcessSegments folds word-level items into coarse segments by time and
// speaker contiguity. A punctuation item (no start time) joins the open
// segment of its speaker; an item with a start time or a new speaker
// closes the open segment and starts the next one. Also returns the end
// time of the last pronunciation item as the total duration.
func ProcessSegments(items []types.RecognizedItem) ([]types.TranscriptSegment, float64, error) {
	if len(items) == 0 {
		return nil, 0, ErrEmptyTranscript
	}

	second := func(item types.RecognizedItem, fallback int) int {
		if item.StartTime == nil {
			return fallback
		}
		return int(math.Floor(*item.StartTime))
	}

	current := types.TranscriptSegment{
		StartSecond: second(items[0], 0),
		Speaker:     items[0].Speaker,
		Text:        items[0].Text,
	}

	var segments []types.TranscriptSegment
	for _, item := range items[1:] {
		switch {
		case item.Speaker == current.Speaker && item.StartTime == nil:
			current.Text += " " + item.Text
		default:
			// an item without a start time inherits the second of the
			// segment it closes, keeping segments non-decreasing
			segments = append(segments, current)
			current = types.TranscriptSegment{
				StartSecond: second(item, current.StartSecond),
				Speaker:     item.Speaker,
				Text:        item.Text,
			}
		}
	}
	segments = append(segments, current)

	var duration float64
	for _, item := range items {
		if item.Kind == types.ItemPronunciation {
			duration = item.EndTime
		}
	}
	return segments, duration, nil
}

// CombineBySeconds merges adjacent segments that share the same integer
// start second and speaker. Segments from different speakers stay
// separate even on the same second.
func CombineBySeconds(segments []types.TranscriptSegment) []types.TranscriptSegment {
	if len(segments) == 0 {
		return nil
	}

	var combined []types.TranscriptSegment
	current := segments[0]
	for _, seg := range segments[1:] {
		if seg.StartSecond == current.StartSecond && seg.Speaker == current.Speaker {
			current.Text += " " + seg.Text
			continue
		}
		combined = append(combined, current)
		current = seg
	}
	return append(combined, current)
}

// CombineBySpeaker accumulates same-speaker runs into chunks capped at
// maxChars. A run is flushed early once its text ends in terminal
// punctuation and exceeds the cap. Segments without a diarized speaker
// label are skipped. A short final chunk is folded into the previous one
// instead of being emitted on its own.
func CombineBySpeaker(segments []types.TranscriptSegment, maxChars int) []types.TranscriptSegment {
	var combined []types.TranscriptSegment
	var current types.TranscriptSegment
	open := false

	for _, seg := range segments {
		if !strings.Contains(seg.Speaker, "spk_") {
			continue
		}
		if !open {
			current = seg
			open = true
			continue
		}

		if seg.Speaker == current.Speaker {
			current.Text += " " + seg.Text
			if endsWithTerminal(current.Text) && len(current.Text) > maxChars {
				combined = append(combined, current)
				current = seg
			}
		} else {
			combined = append(combined, current)
			current = seg
		}
	}

	if !open {
		return combined
	}
	if len(current.Text) < 100 && len(combined) >= 1 {
		combined[len(combined)-1].Text += " " + current.Text
		return combined
	}
	return append(combined, current)
}

func endsWithTerminal(text string) bool {
	trimmed := strings.TrimRight(text, " \t")
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}

// ProcessTranscript runs the full segmentation chain on recognizer items
// and returns readable speaker chunks plus the media duration in seconds.
func ProcessTranscript(items []types.RecognizedItem, maxChars int) ([]types.TranscriptSegment, float64, error) {
	segments, duration, err := ProcessSegments(items)
	if err != nil {
		return nil, 0, err
	}
	bySecond := CombineBySeconds(segments)
	bySpeaker := CombineBySpeaker(bySecond, maxChars)
	return bySpeaker, duration, nil
}
