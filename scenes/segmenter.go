// Package scenes turns user-supplied change-point timestamps into an ordered
// list of disjoint scene intervals. Every downstream timing budget and frame
// index derives from these boundaries, so construction is deterministic
// regardless of input ordering or duplicates.
package scenes

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDuration is returned when the total duration is not a positive finite number.
	ErrInvalidDuration = errors.New("total duration must be a positive finite number")

	// ErrNoScenes is returned when segmentation produces no scenes.
	ErrNoScenes = errors.New("no scenes could be constructed")
)

// Scene is a contiguous, non-overlapping time interval of the source video.
// Immutable after segmentation; FramePath is the stable naming prefix used to
// derive per-frame identifiers, not a full filesystem path.
type Scene struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
	FramePath string  `json:"framePath"`
}

// Segment parses a free-text comma-separated list of candidate change-point
// timestamps and emits one scene per consecutive boundary pair over
// [0, totalDuration]. Candidates that are non-numeric, <= 0, or >= the total
// duration are discarded; the 0 and totalDuration boundaries are implicit and
// never user-supplied.
func Segment(candidates string, totalDuration float64) ([]Scene, error) {
	if totalDuration <= 0 || math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, totalDuration)
	}

	seen := make(map[float64]bool)
	var points []float64
	for _, raw := range strings.Split(candidates, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if v <= 0 || v >= totalDuration || math.IsNaN(v) {
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		points = append(points, v)
	}
	sort.Float64s(points)

	boundaries := make([]float64, 0, len(points)+2)
	boundaries = append(boundaries, 0)
	boundaries = append(boundaries, points...)
	boundaries = append(boundaries, totalDuration)

	scenes := make([]Scene, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		start, end := boundaries[i], boundaries[i+1]
		if end-start <= 0 {
			continue
		}
		scenes = append(scenes, Scene{
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
			FramePath: fmt.Sprintf("scene_%d", len(scenes)),
		})
	}

	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	return scenes, nil
}
