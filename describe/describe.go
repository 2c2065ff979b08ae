// Package describe produces a structured visual description per scene,
// preferring one batch request over all scenes with a per-scene fallback path.
package describe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"scenescribe/generation"
	"scenescribe/scenes"
)

var (
	// ErrNoFrames is returned when a scene has zero available frames at the
	// moment an individual description is attempted.
	ErrNoFrames = errors.New("no frames available for scene")

	// ErrEmptyResult is returned when no scene could be described at all.
	ErrEmptyResult = errors.New("no scene descriptions produced")
)

// SceneDescription is the structured output for one scene. Timing fields are
// always re-attached from the Scene record, never trusted from the service.
type SceneDescription struct {
	SceneIndex      int      `json:"sceneIndex"`
	StartTime       float64  `json:"startTime"`
	EndTime         float64  `json:"endTime"`
	Duration        float64  `json:"duration"`
	Description     string   `json:"description"`
	VisualElements  []string `json:"visualElements"`
	Mood            string   `json:"mood"`
	KeyPeople       []string `json:"keyPeople"`
	SpecificActions []string `json:"specificActions"`
}

// Generator is the slice of the generation client this stage needs.
type Generator interface {
	Generate(ctx context.Context, parts []generation.Part) (string, error)
}

// FrameLister reports which of a scene's expected frames actually exist.
type FrameLister interface {
	Available(scene scenes.Scene) []string
}

// Stage runs visual description over segmented scenes.
type Stage struct {
	gen    Generator
	frames FrameLister
	delay  time.Duration
}

// NewStage creates a description stage. delay is the fixed sleep between
// per-scene fallback calls.
func NewStage(gen Generator, frames FrameLister, delay time.Duration) *Stage {
	return &Stage{gen: gen, frames: frames, delay: delay}
}

const batchInstruction = `You are analyzing frames sampled from consecutive scenes of a single video.
For every scene listed below, describe its visual content.
Respond with ONLY a JSON array, one object per scene in the given order, each shaped as:
{"sceneIndex": <int>, "description": "<2-3 sentences>", "visualElements": ["..."], "mood": "<one word>", "keyPeople": ["..."], "specificActions": ["..."]}
Do not add commentary outside the JSON array.`

const sceneInstruction = `Describe the visual content of this video scene based on its frames.
Respond with ONLY a JSON object shaped as:
{"description": "<2-3 sentences>", "visualElements": ["..."], "mood": "<one word>", "keyPeople": ["..."], "specificActions": ["..."]}`

// DescribeAllScenes is the preferred entry point: one request covering every
// scene. Any failure to obtain or parse the batch response triggers a full
// fallback to the per-scene path.
func (s *Stage) DescribeAllScenes(ctx context.Context, scs []scenes.Scene) ([]SceneDescription, error) {
	parts := []generation.Part{generation.TextPart(batchInstruction)}
	for i, scene := range scs {
		framePaths := s.frames.Available(scene)
		parts = append(parts, generation.TextPart(fmt.Sprintf(
			"Scene %d: %.2fs to %.2fs (%.2fs long), %d frame(s) follow.",
			i, scene.StartTime, scene.EndTime, scene.Duration, len(framePaths))))
		parts = append(parts, imageParts(framePaths)...)
	}

	text, err := s.gen.Generate(ctx, parts)
	if err != nil {
		log.Printf("Batch description request failed, falling back to per-scene: %v", err)
		return s.describeEachScene(ctx, scs)
	}

	var descs []SceneDescription
	if err := generation.Decode(text, &descs); err != nil {
		log.Printf("Batch description response unparseable, falling back to per-scene: %v", err)
		return s.describeEachScene(ctx, scs)
	}
	if len(descs) != len(scs) {
		log.Printf("Batch description returned %d entries for %d scenes, falling back to per-scene", len(descs), len(scs))
		return s.describeEachScene(ctx, scs)
	}

	// Position in the array is authoritative; a mismatched echoed index is
	// corrected, and timing always comes from the Scene record.
	for i := range descs {
		if descs[i].SceneIndex != i {
			log.Printf("Batch description scene index mismatch at position %d (got %d), reindexing", i, descs[i].SceneIndex)
		}
		attachSceneFields(&descs[i], i, scs[i])
	}
	return descs, nil
}

// DescribeScene describes a single scene from its available frames. It fails
// only when zero frames exist for the scene.
func (s *Stage) DescribeScene(ctx context.Context, index int, scene scenes.Scene) (*SceneDescription, error) {
	framePaths := s.frames.Available(scene)
	if len(framePaths) == 0 {
		return nil, fmt.Errorf("%w: scene %d", ErrNoFrames, index)
	}

	parts := []generation.Part{
		generation.TextPart(sceneInstruction),
		generation.TextPart(fmt.Sprintf("Scene %d: %.2fs to %.2fs (%.2fs long).",
			index, scene.StartTime, scene.EndTime, scene.Duration)),
	}
	imgs := imageParts(framePaths)
	if len(imgs) == 0 {
		return nil, fmt.Errorf("%w: scene %d", ErrNoFrames, index)
	}
	parts = append(parts, imgs...)

	text, err := s.gen.Generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("scene %d description failed: %w", index, err)
	}

	var desc SceneDescription
	if err := generation.Decode(text, &desc); err != nil {
		return nil, fmt.Errorf("scene %d description: %w", index, err)
	}
	attachSceneFields(&desc, index, scene)
	return &desc, nil
}

// describeEachScene is the sequential fallback loop. A failure in one scene's
// call is reported but does not abort the remaining scenes.
func (s *Stage) describeEachScene(ctx context.Context, scs []scenes.Scene) ([]SceneDescription, error) {
	var descs []SceneDescription
	for i, scene := range scs {
		if i > 0 && s.delay > 0 {
			time.Sleep(s.delay)
		}
		desc, err := s.DescribeScene(ctx, i, scene)
		if err != nil {
			log.Printf("Scene %d description skipped: %v", i, err)
			continue
		}
		descs = append(descs, *desc)
	}
	if len(descs) == 0 {
		return nil, ErrEmptyResult
	}
	return descs, nil
}

func attachSceneFields(d *SceneDescription, index int, scene scenes.Scene) {
	d.SceneIndex = index
	d.StartTime = scene.StartTime
	d.EndTime = scene.EndTime
	d.Duration = scene.Duration
}

func imageParts(paths []string) []generation.Part {
	parts := make([]generation.Part, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("Skipping unreadable frame %s: %v", p, err)
			continue
		}
		parts = append(parts, generation.ImagePart(data))
	}
	return parts
}
