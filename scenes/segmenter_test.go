package scenes

import (
	"errors"
	"math"
	"testing"
)

func TestSegmentBoundaries(t *testing.T) {
	cases := []struct {
		name       string
		candidates string
		duration   float64
		want       [][2]float64
	}{
		{
			name:       "duplicates and out of range collapse",
			candidates: "5,5,2,30",
			duration:   30,
			want:       [][2]float64{{0, 2}, {2, 5}, {5, 30}},
		},
		{
			name:       "unordered input yields same boundaries",
			candidates: "5,2",
			duration:   30,
			want:       [][2]float64{{0, 2}, {2, 5}, {5, 30}},
		},
		{
			name:       "no candidates gives single full scene",
			candidates: "",
			duration:   12.5,
			want:       [][2]float64{{0, 12.5}},
		},
		{
			name:       "garbage and negatives discarded",
			candidates: "abc,-3,0,7.5,999",
			duration:   20,
			want:       [][2]float64{{0, 7.5}, {7.5, 20}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Segment(c.candidates, c.duration)
			if err != nil {
				t.Fatalf("Segment(%q, %v) error: %v", c.candidates, c.duration, err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("got %d scenes, want %d: %+v", len(got), len(c.want), got)
			}
			for i, s := range got {
				if s.StartTime != c.want[i][0] || s.EndTime != c.want[i][1] {
					t.Errorf("scene %d = [%v,%v), want [%v,%v)", i, s.StartTime, s.EndTime, c.want[i][0], c.want[i][1])
				}
				if s.Duration <= 0 {
					t.Errorf("scene %d has non-positive duration %v", i, s.Duration)
				}
				if s.Duration != s.EndTime-s.StartTime {
					t.Errorf("scene %d duration %v != end-start %v", i, s.Duration, s.EndTime-s.StartTime)
				}
			}
		})
	}
}

func TestSegmentCoversDurationWithoutGaps(t *testing.T) {
	got, err := Segment("3,9,14.25,7", 21)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].StartTime != 0 {
		t.Errorf("first scene starts at %v, want 0", got[0].StartTime)
	}
	if got[len(got)-1].EndTime != 21 {
		t.Errorf("last scene ends at %v, want 21", got[len(got)-1].EndTime)
	}
	for i := 1; i < len(got); i++ {
		if got[i].StartTime != got[i-1].EndTime {
			t.Errorf("gap or overlap between scene %d and %d: %v vs %v",
				i-1, i, got[i-1].EndTime, got[i].StartTime)
		}
	}
}

func TestSegmentIdempotentUnderReordering(t *testing.T) {
	a, err := Segment("2,8,5", 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Segment("8,5,2,2,5", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("scene counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("scene %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSegmentInvalidDuration(t *testing.T) {
	for _, d := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := Segment("1,2", d); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Segment with duration %v: got %v, want ErrInvalidDuration", d, err)
		}
	}
}

func TestSegmentFramePathsAreDense(t *testing.T) {
	got, err := Segment("4,8", 12)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"scene_0", "scene_1", "scene_2"}
	for i, s := range got {
		if s.FramePath != want[i] {
			t.Errorf("scene %d FramePath = %q, want %q", i, s.FramePath, want[i])
		}
	}
}
