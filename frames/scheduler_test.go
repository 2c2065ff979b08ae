package frames

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scenescribe/scenes"
)

// fakeExtractor records capture requests and optionally fails at given
// timestamps, writing empty files otherwise.
type fakeExtractor struct {
	calls  []float64
	failAt map[float64]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, videoPath string, timestamp float64, destPath string) error {
	f.calls = append(f.calls, timestamp)
	if f.failAt[timestamp] {
		return errors.New("capture failed")
	}
	return os.WriteFile(destPath, []byte{0xff, 0xd8}, 0644)
}

func TestCount(t *testing.T) {
	cases := []struct {
		duration float64
		interval float64
		want     int
	}{
		{10, 5, 2},
		{11, 5, 3},
		{4, 5, 1},
		{25, 5, 5},
		{5, 0, 0},
	}
	for _, c := range cases {
		s := scenes.Scene{StartTime: 0, EndTime: c.duration, Duration: c.duration}
		if got := Count(s, c.interval); got != c.want {
			t.Errorf("Count(duration=%v, interval=%v) = %d, want %d", c.duration, c.interval, got, c.want)
		}
	}
}

func TestSampleTimesMonotonicAndClamped(t *testing.T) {
	s := scenes.Scene{StartTime: 10, EndTime: 23, Duration: 13}
	times := SampleTimes(s, 5)

	if len(times) != 3 {
		t.Fatalf("got %d sample times, want 3: %v", len(times), times)
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Errorf("sample times not monotonic: %v", times)
		}
	}
	last := times[len(times)-1]
	if last > s.EndTime {
		t.Errorf("final sample %v exceeds scene end %v", last, s.EndTime)
	}
	if times[0] != s.StartTime {
		t.Errorf("first sample %v, want scene start %v", times[0], s.StartTime)
	}
}

func TestSampleTimesExactMultiple(t *testing.T) {
	s := scenes.Scene{StartTime: 0, EndTime: 10, Duration: 10}
	times := SampleTimes(s, 5)
	want := []float64{0, 5}
	if len(times) != len(want) {
		t.Fatalf("got %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, times[i], want[i])
		}
	}
}

func TestScheduleAllTolerantOfCaptureFailure(t *testing.T) {
	dir := t.TempDir()
	s := scenes.Scene{StartTime: 0, EndTime: 12, Duration: 12, FramePath: "scene_0"}

	ext := &fakeExtractor{failAt: map[float64]bool{5: true}}
	sched := NewScheduler(ext, dir, 5)

	if err := sched.ScheduleAll(context.Background(), "video.mp4", []scenes.Scene{s}); err != nil {
		t.Fatalf("ScheduleAll returned error despite capture-level failure: %v", err)
	}

	if len(ext.calls) != 3 {
		t.Fatalf("extractor called %d times, want 3", len(ext.calls))
	}

	avail := sched.Available(s)
	if len(avail) != 2 {
		t.Fatalf("got %d available frames, want 2 (one capture failed): %v", len(avail), avail)
	}
	want := []string{
		filepath.Join(dir, "scene_0_0.jpg"),
		filepath.Join(dir, "scene_0_2.jpg"),
	}
	for i := range want {
		if avail[i] != want[i] {
			t.Errorf("available[%d] = %q, want %q", i, avail[i], want[i])
		}
	}
}

func TestAvailableEmptyWhenNothingExtracted(t *testing.T) {
	s := scenes.Scene{StartTime: 0, EndTime: 8, Duration: 8, FramePath: "scene_3"}
	if got := Available(t.TempDir(), s, 5); len(got) != 0 {
		t.Errorf("expected no available frames, got %v", got)
	}
}
