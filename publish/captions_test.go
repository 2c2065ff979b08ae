package publish

import (
	"strings"
	"testing"

	"scenescribe/pipeline"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{59.999, "00:00:59,999"},
		{65, "00:01:05,000"},
		{3725.25, "01:02:05,250"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSRTOneCuePerSegment(t *testing.T) {
	result := &pipeline.TimedScriptResult{
		TotalDurationSec: 10,
		Segments: []pipeline.TimedSegment{
			{StartSec: 0, EndSec: 4, Sentence: "The harbor wakes slowly."},
			{StartSec: 4, EndSec: 10, Sentence: "Boats drift out with the tide."},
		},
	}

	srt := SRT(result)

	want := "1\n00:00:00,000 --> 00:00:04,000\nThe harbor wakes slowly.\n\n" +
		"2\n00:00:04,000 --> 00:00:10,000\nBoats drift out with the tide.\n\n"
	if srt != want {
		t.Errorf("SRT output:\n%s\nwant:\n%s", srt, want)
	}
	if !strings.HasSuffix(srt, "\n\n") {
		t.Error("cues must be blank-line separated")
	}
}
