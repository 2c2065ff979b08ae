package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"scenescribe/generation"
)

// ErrEmptyResult is returned when validation discards every segment of a
// direct-script response.
var ErrEmptyResult = errors.New("no valid timed segments produced")

// TimedSegment is one sentence of narration with its exact time window.
type TimedSegment struct {
	StartSec    float64 `json:"startSec"`
	EndSec      float64 `json:"endSec"`
	DurationSec float64 `json:"durationSec"`
	Sentence    string  `json:"sentence"`
}

// TimedScriptResult is a fully timed sentence-level script covering the video.
type TimedScriptResult struct {
	TotalDurationSec float64        `json:"totalDurationSec"`
	Segments         []TimedSegment `json:"segments"`
}

// Uploader covers the generation service's media-store surface.
type Uploader interface {
	Upload(ctx context.Context, path string) (*generation.UploadedFile, error)
	AwaitReady(ctx context.Context, name string, interval time.Duration, maxAttempts int) error
}

// Generator is the slice of the generation client the direct path needs.
type Generator interface {
	Generate(ctx context.Context, parts []generation.Part) (string, error)
}

// DirectPipeline bypasses segmentation and description entirely: the service
// derives the timed script straight from the uploaded video.
type DirectPipeline struct {
	gen          Generator
	uploader     Uploader
	pollInterval time.Duration
	maxAttempts  int
}

// NewDirectPipeline creates the alternate direct-script path.
func NewDirectPipeline(gen Generator, uploader Uploader, pollInterval time.Duration, maxAttempts int) *DirectPipeline {
	return &DirectPipeline{gen: gen, uploader: uploader, pollInterval: pollInterval, maxAttempts: maxAttempts}
}

const directInstruction = `Watch this video and write a spoken narration script for it.
Respond with ONLY a JSON object shaped as:
{"totalDurationSec": <number>, "segments": [{"startSec": <number>, "endSec": <number>, "durationSec": <number>, "sentence": "<one spoken sentence>"}]}
Segments must be strictly time-ordered, non-overlapping, and together cover the whole video from 0 to totalDurationSec.`

// Run uploads the video, waits for processing, and asks for a timed script
// referencing the upload. If upload or polling fails for any reason, the
// entire generation is retried once with the raw bytes embedded inline; there
// is no further fallback after that.
func (p *DirectPipeline) Run(ctx context.Context, videoPath string) (*TimedScriptResult, error) {
	mediaPart, err := p.uploadedPart(ctx, videoPath)
	if err != nil {
		log.Printf("Upload path failed, retrying with inline bytes: %v", err)
		data, readErr := os.ReadFile(videoPath)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read video for inline fallback: %w", readErr)
		}
		mediaPart = generation.VideoPart(data)
	}

	text, err := p.gen.Generate(ctx, []generation.Part{mediaPart, generation.TextPart(directInstruction)})
	if err != nil {
		return nil, fmt.Errorf("direct script generation failed: %w", err)
	}

	var raw TimedScriptResult
	if err := generation.Decode(text, &raw); err != nil {
		return nil, err
	}
	return ValidateTimedScript(raw)
}

func (p *DirectPipeline) uploadedPart(ctx context.Context, videoPath string) (generation.Part, error) {
	uploaded, err := p.uploader.Upload(ctx, videoPath)
	if err != nil {
		return generation.Part{}, err
	}
	if err := p.uploader.AwaitReady(ctx, uploaded.Name, p.pollInterval, p.maxAttempts); err != nil {
		return generation.Part{}, err
	}
	return generation.FilePart(uploaded.URI, "video/mp4"), nil
}

// ValidateTimedScript filters out segments with an empty sentence or a
// non-positive time window and recomputes durations from the accepted
// endpoints. Zero surviving segments is fatal.
func ValidateTimedScript(raw TimedScriptResult) (*TimedScriptResult, error) {
	valid := make([]TimedSegment, 0, len(raw.Segments))
	for _, seg := range raw.Segments {
		if strings.TrimSpace(seg.Sentence) == "" {
			log.Printf("Discarding segment [%.2f-%.2f]: empty sentence", seg.StartSec, seg.EndSec)
			continue
		}
		if seg.EndSec <= seg.StartSec {
			log.Printf("Discarding segment %q: non-positive duration [%.2f-%.2f]", seg.Sentence, seg.StartSec, seg.EndSec)
			continue
		}
		seg.DurationSec = seg.EndSec - seg.StartSec
		valid = append(valid, seg)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyResult
	}
	return &TimedScriptResult{TotalDurationSec: raw.TotalDurationSec, Segments: valid}, nil
}
