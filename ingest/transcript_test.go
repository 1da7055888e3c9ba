package ingest

import (
	"strings"
	"testing"

	"videorag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pron(start, end float64, speaker, text string) types.RecognizedItem {
	return types.RecognizedItem{
		Kind:      types.ItemPronunciation,
		StartTime: &start,
		EndTime:   end,
		Speaker:   speaker,
		Text:      text,
	}
}

func punct(speaker, text string) types.RecognizedItem {
	return types.RecognizedItem{
		Kind:    types.ItemPunctuation,
		Speaker: speaker,
		Text:    text,
	}
}

func TestProcessSegments(t *testing.T) {
	items := []types.RecognizedItem{
		pron(0.0, 0.5, "spk_0", "Hello"),
		punct("spk_0", "world."),
		pron(2.0, 2.4, "spk_1", "Hi"),
	}

	segments, duration, err := ProcessSegments(items)
	require.NoError(t, err)

	require.Equal(t, []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "Hello world."},
		{StartSecond: 2, Speaker: "spk_1", Text: "Hi"},
	}, segments)
	assert.Equal(t, 2.4, duration)
}

func TestProcessSegmentsEmpty(t *testing.T) {
	_, _, err := ProcessSegments(nil)
	require.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestProcessSegmentsSameSpeakerNewTime(t *testing.T) {
	items := []types.RecognizedItem{
		pron(0.2, 0.9, "spk_0", "first"),
		pron(1.7, 2.1, "spk_0", "second"),
	}

	segments, _, err := ProcessSegments(items)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].StartSecond)
	assert.Equal(t, 1, segments[1].StartSecond)
}

func TestProcessSegmentsKeepsEveryToken(t *testing.T) {
	items := []types.RecognizedItem{
		pron(0.0, 0.4, "spk_0", "The"),
		pron(0.4, 0.8, "spk_0", "quick"),
		punct("spk_0", ","),
		pron(1.1, 1.5, "spk_1", "brown"),
		pron(1.5, 1.9, "spk_1", "fox"),
		punct("spk_1", "."),
		pron(3.0, 3.2, "spk_0", "Jumps"),
	}

	segments, _, err := ProcessSegments(items)
	require.NoError(t, err)

	var emitted []string
	for _, seg := range segments {
		require.NotEmpty(t, seg.Text)
		emitted = append(emitted, strings.Fields(seg.Text)...)
	}
	var fed []string
	for _, item := range items {
		fed = append(fed, item.Text)
	}
	assert.Equal(t, fed, emitted)
}

func TestProcessSegmentsChronological(t *testing.T) {
	items := []types.RecognizedItem{
		pron(0.0, 0.4, "spk_0", "a"),
		punct("spk_1", "!"), // speaker change without a start time
		pron(5.0, 5.4, "spk_1", "b"),
	}

	segments, _, err := ProcessSegments(items)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	last := -1
	for _, seg := range segments {
		assert.GreaterOrEqual(t, seg.StartSecond, last)
		last = seg.StartSecond
	}
}

func TestCombineBySeconds(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "Hello"},
		{StartSecond: 0, Speaker: "spk_0", Text: "world."},
		{StartSecond: 0, Speaker: "spk_1", Text: "Hi"},
		{StartSecond: 2, Speaker: "spk_1", Text: "there"},
	}

	combined := CombineBySeconds(segments)
	require.Equal(t, []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "Hello world."},
		{StartSecond: 0, Speaker: "spk_1", Text: "Hi"},
		{StartSecond: 2, Speaker: "spk_1", Text: "there"},
	}, combined)
}

func TestCombineBySpeakerMergesShortTail(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "One."},
		{StartSecond: 3, Speaker: "spk_1", Text: "Two."},
	}

	combined := CombineBySpeaker(segments, 1000)
	require.Len(t, combined, 1)
	assert.Equal(t, "spk_0", combined[0].Speaker)
	assert.Contains(t, combined[0].Text, "Two.")
}

func TestCombineBySpeakerKeepsLongTail(t *testing.T) {
	long := strings.Repeat("A long closing statement. ", 10)
	segments := []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "One."},
		{StartSecond: 3, Speaker: "spk_1", Text: long},
	}

	combined := CombineBySpeaker(segments, 1000)
	require.Len(t, combined, 2)
	assert.Equal(t, "spk_1", combined[1].Speaker)
}

func TestCombineBySpeakerFlushesAtCap(t *testing.T) {
	long := strings.Repeat("word ", 30) + "end."
	segments := []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "spk_0", Text: "First part."},
		{StartSecond: 5, Speaker: "spk_0", Text: "Second part."},
		{StartSecond: 6, Speaker: "spk_0", Text: long},
	}

	combined := CombineBySpeaker(segments, 10)
	require.Len(t, combined, 3)
	assert.Equal(t, 0, combined[0].StartSecond)
	assert.Equal(t, 5, combined[1].StartSecond)
	assert.Equal(t, 6, combined[2].StartSecond)
	for _, seg := range combined {
		assert.Equal(t, "spk_0", seg.Speaker)
	}
}

func TestCombineBySpeakerSkipsUndiarized(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSecond: 0, Speaker: "", Text: "noise"},
		{StartSecond: 1, Speaker: "spk_0", Text: "Real text."},
	}

	combined := CombineBySpeaker(segments, 1000)
	require.Len(t, combined, 1)
	assert.Equal(t, types.TranscriptSegment{StartSecond: 1, Speaker: "spk_0", Text: "Real text."}, combined[0])

	assert.Empty(t, CombineBySpeaker([]types.TranscriptSegment{
		{StartSecond: 0, Speaker: "", Text: "noise"},
	}, 1000))
}

func TestParseTranscribeOutput(t *testing.T) {
	data := []byte(`{
        "results": {
            "items": [
                {"start_time": "1.23", "end_time": "1.80", "type": "pronunciation", "speaker_label": "spk_0", "alternatives": [{"confidence": "0.99", "content": "Hello"}]},
                {"type": "punctuation", "speaker_label": "spk_0", "alternatives": [{"confidence": "0.0", "content": "."}]}
            ]
        }
    }`)

	items, err := ParseTranscribeOutput(data)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].StartTime)
	assert.Equal(t, 1.23, *items[0].StartTime)
	assert.Equal(t, 1.8, items[0].EndTime)
	assert.Equal(t, "spk_0", items[0].Speaker)
	assert.Equal(t, "Hello", items[0].Text)

	assert.Nil(t, items[1].StartTime)
	assert.Equal(t, types.ItemPunctuation, items[1].Kind)
}

func TestParseTranscribeOutputMalformed(t *testing.T) {
	data := []byte(`{"results": {"items": [{"type": "pronunciation", "alternatives": []}]}}`)

	_, err := ParseTranscribeOutput(data)
	var malformed *MalformedItemError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 0, malformed.Index)
}

func TestProcessTranscript(t *testing.T) {
	items := []types.RecognizedItem{
		pron(0.0, 0.5, "spk_0", "Hello"),
		punct("spk_0", "."),
		pron(1.0, 1.5, "spk_0", "Welcome"),
		punct("spk_0", "."),
		pron(4.0, 4.5, "spk_1", "Thanks"),
		punct("spk_1", "."),
	}

	chunks, duration, err := ProcessTranscript(items, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 4.5, duration)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Text)
	}
}
