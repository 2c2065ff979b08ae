// Package pipeline sequences segmentation, frame scheduling, description and
// narration end to end, and hosts the alternate direct-script path.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"scenescribe/config"
	"scenescribe/describe"
	"scenescribe/frames"
	"scenescribe/generation"
	"scenescribe/scenes"
	"scenescribe/script"
)

// RunInput is everything a single narration run needs.
type RunInput struct {
	VideoPath  string  `json:"video_path"`
	Subject    string  `json:"subject"`
	Timestamps string  `json:"timestamps"`
	Duration   float64 `json:"duration,omitempty"` // probed from the video when zero
}

// Result is the pipeline's full output: the persisted contract consumed by
// downstream tools.
type Result struct {
	Scenes       []scenes.Scene              `json:"scenes"`
	Descriptions []describe.SceneDescription `json:"descriptions"`
	Script       *script.CombinedScript      `json:"script"`
}

// Orchestrator wires the four stages together. Stages run strictly
// sequentially; each stage owns the value objects it returns.
type Orchestrator struct {
	scheduler     *frames.Scheduler
	describeStage *describe.Stage
	scriptStage   *script.Stage
}

// New builds an orchestrator from validated configuration and a generation
// client. All collaborators are constructed here so entrypoints stay thin.
func New(cfg *config.Config, gen *generation.Client) *Orchestrator {
	scheduler := frames.NewScheduler(frames.NewFFmpegExtractor(), filepath.Join(cfg.WorkDir, config.FramesDir), config.FrameInterval)
	return &Orchestrator{
		scheduler:     scheduler,
		describeStage: describe.NewStage(gen, scheduler, config.SceneCallDelay),
		scriptStage:   script.NewStage(gen, scheduler, config.SceneCallDelay, config.WordsPerSecond),
	}
}

// NewWithStages builds an orchestrator from explicit collaborators.
func NewWithStages(scheduler *frames.Scheduler, d *describe.Stage, s *script.Stage) *Orchestrator {
	return &Orchestrator{scheduler: scheduler, describeStage: d, scriptStage: s}
}

// Run executes the full pipeline. Segmentation errors, a total absence of
// descriptions, and a total absence of narration are fatal; everything else
// is recovered by the stages' own fallback paths.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*Result, error) {
	duration := in.Duration
	if duration <= 0 {
		probed, err := ProbeDuration(in.VideoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to probe video duration: %w", err)
		}
		duration = probed
	}

	log.Printf("Segmenting %.2fs video with candidates %q", duration, in.Timestamps)
	scs, err := scenes.Segment(in.Timestamps, duration)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	log.Printf("Segmented into %d scene(s)", len(scs))

	if err := o.scheduler.ScheduleAll(ctx, in.VideoPath, scs); err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	log.Println("Describing scenes...")
	descs, err := o.describeStage.DescribeAllScenes(ctx, scs)
	if err != nil {
		return nil, fmt.Errorf("description stage failed: %w", err)
	}
	log.Printf("Described %d/%d scene(s)", len(descs), len(scs))

	log.Println("Generating narration...")
	combined, err := o.scriptStage.GenerateAll(ctx, in.Subject, scs, descs)
	if err != nil {
		return nil, fmt.Errorf("script stage failed: %w", err)
	}
	log.Printf("Narration complete: ~%d words, %s pacing", combined.TotalEstimatedWords, combined.Pacing)

	return &Result{Scenes: scs, Descriptions: descs, Script: combined}, nil
}
