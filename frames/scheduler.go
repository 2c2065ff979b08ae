// Package frames defines the deterministic naming and scheduling contract for
// the still images sampled from each scene, and drives the extraction
// collaborator that produces them.
package frames

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"scenescribe/scenes"
)

// Extractor captures one still image from a video at the given timestamp.
// Implementations report failure through the error, but the scheduler never
// retries: a failed capture simply yields a missing frame, detected lazily by
// the next stage via existence checks.
type Extractor interface {
	Extract(ctx context.Context, videoPath string, timestamp float64, destPath string) error
}

// Count is the number of frames expected for a scene at the given sampling
// interval: ceil(duration / interval).
func Count(scene scenes.Scene, interval float64) int {
	if interval <= 0 {
		return 0
	}
	return int(math.Ceil(scene.Duration / interval))
}

// SampleTimes returns the capture timestamps for a scene. Samples advance by
// the interval from the scene start; the final sample is clamped to the scene
// end so it never crosses the boundary when duration is not an exact multiple
// of the interval.
func SampleTimes(scene scenes.Scene, interval float64) []float64 {
	n := Count(scene, interval)
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t := scene.StartTime + float64(i)*interval
		if t > scene.EndTime {
			t = scene.EndTime
		}
		times = append(times, t)
	}
	return times
}

// Path returns the on-disk location of frame i for a scene under dir.
func Path(dir string, scene scenes.Scene, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", scene.FramePath, i))
}

// Scheduler drives the extraction collaborator over every scene in order.
type Scheduler struct {
	extractor Extractor
	dir       string
	interval  float64
}

// NewScheduler creates a scheduler writing frames into dir at the given
// sampling interval in seconds.
func NewScheduler(extractor Extractor, dir string, interval float64) *Scheduler {
	return &Scheduler{extractor: extractor, dir: dir, interval: interval}
}

// ScheduleAll extracts frames for every scene sequentially, in order. Capture
// failures are logged and skipped; the resulting gaps surface later as missing
// files.
func (s *Scheduler) ScheduleAll(ctx context.Context, videoPath string, scs []scenes.Scene) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create frames directory: %w", err)
	}

	for idx, scene := range scs {
		times := SampleTimes(scene, s.interval)
		log.Printf("Extracting %d frame(s) for scene %d [%.2f-%.2f]", len(times), idx, scene.StartTime, scene.EndTime)
		for i, t := range times {
			dest := Path(s.dir, scene, i)
			if err := s.extractor.Extract(ctx, videoPath, t, dest); err != nil {
				log.Printf("Frame capture failed at %.2fs (scene %d, frame %d): %v", t, idx, i, err)
			}
		}
	}
	return nil
}

// Available returns the paths of the frames that actually exist on disk for a
// scene, in sample order. Missing frames are silently excluded.
func (s *Scheduler) Available(scene scenes.Scene) []string {
	return Available(s.dir, scene, s.interval)
}

// Available lists the existing frame files for a scene under dir, in order.
func Available(dir string, scene scenes.Scene, interval float64) []string {
	n := Count(scene, interval)
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := Path(dir, scene, i)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
