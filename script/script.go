// Package script generates narration aligned to scene timing, either as one
// global script or as independent per-scene scripts merged in order, under a
// speaking-rate word budget.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"scenescribe/config"
	"scenescribe/describe"
	"scenescribe/generation"
	"scenescribe/scenes"
)

// ErrEmptyResult is returned when no narration could be produced for any scene.
var ErrEmptyResult = errors.New("no narration produced")

// VoiceoverScript is the narration for a single scene.
type VoiceoverScript struct {
	SceneIndex     int      `json:"sceneIndex"`
	Script         string   `json:"script"`
	EstimatedWords int      `json:"estimatedWords"`
	Pacing         string   `json:"pacing"`
	Emphasis       []string `json:"emphasis,omitempty"`
}

// CombinedScript is continuous narration covering the whole video.
type CombinedScript struct {
	Script              string   `json:"script"`
	TotalEstimatedWords int      `json:"totalEstimatedWords"`
	Pacing              string   `json:"pacing"`
	Emphasis            []string `json:"emphasis,omitempty"`
}

// Generator is the slice of the generation client this stage needs.
type Generator interface {
	Generate(ctx context.Context, parts []generation.Part) (string, error)
}

// FrameLister reports which of a scene's expected frames actually exist.
type FrameLister interface {
	Available(scene scenes.Scene) []string
}

// Stage runs narration generation over described scenes.
type Stage struct {
	gen            Generator
	frames         FrameLister
	delay          time.Duration
	wordsPerSecond float64
}

// NewStage creates a script stage. wordsPerSecond is the speaking-rate
// ceiling; delay is the fixed sleep between per-scene fallback calls.
func NewStage(gen Generator, frames FrameLister, delay time.Duration, wordsPerSecond float64) *Stage {
	return &Stage{gen: gen, frames: frames, delay: delay, wordsPerSecond: wordsPerSecond}
}

// GenerateAll is the preferred entry point: one request producing continuous
// narration for the entire video. The per-scene fallback is invoked only when
// the batch request fails or its response cannot be parsed.
func (s *Stage) GenerateAll(ctx context.Context, subject string, scs []scenes.Scene, descs []describe.SceneDescription) (*CombinedScript, error) {
	totalDuration := 0.0
	for _, sc := range scs {
		totalDuration += sc.Duration
	}
	budget := int(math.Floor(totalDuration * s.wordsPerSecond))

	parts := []generation.Part{generation.TextPart(fmt.Sprintf(
		`Write a spoken voiceover narration about "%s" covering the entire video as one continuous script.
The video is %.1f seconds long; stay under %d words total (%.1f words per second speaking rate).
Respond with ONLY a JSON object shaped as:
{"script": "<the full narration>", "estimatedWords": <int>, "pacing": "slow"|"medium"|"fast", "emphasis": ["<terms to stress>"]}`,
		subject, totalDuration, budget, s.wordsPerSecond))}

	for _, d := range descs {
		payload, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal scene description: %w", err)
		}
		parts = append(parts, generation.TextPart(fmt.Sprintf("Scene %d description: %s", d.SceneIndex, payload)))
		if d.SceneIndex >= 0 && d.SceneIndex < len(scs) {
			parts = append(parts, imageParts(s.frames.Available(scs[d.SceneIndex]))...)
		}
	}

	text, err := s.gen.Generate(ctx, parts)
	if err != nil {
		log.Printf("Batch script request failed, falling back to per-scene: %v", err)
		return s.generateEachScene(ctx, subject, scs, descs)
	}

	var batch struct {
		Script         string   `json:"script"`
		EstimatedWords int      `json:"estimatedWords"`
		Pacing         string   `json:"pacing"`
		Emphasis       []string `json:"emphasis"`
	}
	if err := generation.Decode(text, &batch); err != nil {
		log.Printf("Batch script response unparseable, falling back to per-scene: %v", err)
		return s.generateEachScene(ctx, subject, scs, descs)
	}
	if strings.TrimSpace(batch.Script) == "" {
		log.Println("Batch script response contained no narration, falling back to per-scene")
		return s.generateEachScene(ctx, subject, scs, descs)
	}

	return &CombinedScript{
		Script:              batch.Script,
		TotalEstimatedWords: batch.EstimatedWords,
		Pacing:              normalizePacing(batch.Pacing),
		Emphasis:            batch.Emphasis,
	}, nil
}

// GenerateForScene produces narration for one scene, carrying the prior
// scripts as rolling continuity context. The word ceiling is advisory: an
// overrun is logged, never rejected.
func (s *Stage) GenerateForScene(ctx context.Context, subject string, scene scenes.Scene, desc describe.SceneDescription, prior []VoiceoverScript) (*VoiceoverScript, error) {
	maxWords := int(math.Floor(scene.Duration * s.wordsPerSecond))

	var b strings.Builder
	fmt.Fprintf(&b, `Write the spoken voiceover for one scene of a video about "%s".
The scene runs %.2fs to %.2fs; the narration must fit %d words or fewer.
Respond with ONLY a JSON object shaped as:
{"script": "<the narration>", "estimatedWords": <int>, "pacing": "slow"|"medium"|"fast", "emphasis": ["<terms to stress>"]}`,
		subject, scene.StartTime, scene.EndTime, maxWords)
	for _, p := range prior {
		fmt.Fprintf(&b, "\nPrevious scene %d narration (for continuity): %s", p.SceneIndex, p.Script)
	}

	payload, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scene description: %w", err)
	}

	parts := []generation.Part{
		generation.TextPart(b.String()),
		generation.TextPart(fmt.Sprintf("Scene description: %s", payload)),
	}
	parts = append(parts, imageParts(s.frames.Available(scene))...)

	text, err := s.gen.Generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("scene %d script failed: %w", desc.SceneIndex, err)
	}

	var out VoiceoverScript
	if err := generation.Decode(text, &out); err != nil {
		return nil, fmt.Errorf("scene %d script: %w", desc.SceneIndex, err)
	}
	out.SceneIndex = desc.SceneIndex
	out.Pacing = normalizePacing(out.Pacing)

	if maxWords > 0 && out.EstimatedWords > maxWords {
		log.Printf("Scene %d narration exceeds rate ceiling: %d words for %.2fs (max %d)",
			desc.SceneIndex, out.EstimatedWords, scene.Duration, maxWords)
	}
	return &out, nil
}

// generateEachScene is the sequential fallback: one script per described
// scene, merged in ascending scene order.
func (s *Stage) generateEachScene(ctx context.Context, subject string, scs []scenes.Scene, descs []describe.SceneDescription) (*CombinedScript, error) {
	var produced []VoiceoverScript
	for i, d := range descs {
		if i > 0 && s.delay > 0 {
			time.Sleep(s.delay)
		}
		if d.SceneIndex < 0 || d.SceneIndex >= len(scs) {
			log.Printf("Skipping description with out-of-range scene index %d", d.SceneIndex)
			continue
		}

		prior := produced
		if len(prior) > config.ScriptContextWindow {
			prior = prior[len(prior)-config.ScriptContextWindow:]
		}

		vs, err := s.GenerateForScene(ctx, subject, scs[d.SceneIndex], d, prior)
		if err != nil {
			log.Printf("Scene %d script skipped: %v", d.SceneIndex, err)
			continue
		}
		produced = append(produced, *vs)
	}

	if len(produced) == 0 {
		return nil, ErrEmptyResult
	}
	return Merge(produced), nil
}

// Merge concatenates per-scene scripts in ascending scene order into one
// combined script, summing word estimates and flattening emphasis terms.
func Merge(parts []VoiceoverScript) *CombinedScript {
	ordered := make([]VoiceoverScript, len(parts))
	copy(ordered, parts)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].SceneIndex < ordered[j-1].SceneIndex; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	texts := make([]string, 0, len(ordered))
	total := 0
	var emphasis []string
	paceCount := make(map[string]int)
	for _, p := range ordered {
		texts = append(texts, strings.TrimSpace(p.Script))
		total += p.EstimatedWords
		emphasis = append(emphasis, p.Emphasis...)
		paceCount[normalizePacing(p.Pacing)]++
	}

	return &CombinedScript{
		Script:              strings.Join(texts, " "),
		TotalEstimatedWords: total,
		Pacing:              dominantPacing(paceCount),
		Emphasis:            emphasis,
	}
}

func normalizePacing(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "slow":
		return "slow"
	case "fast":
		return "fast"
	default:
		return "medium"
	}
}

func dominantPacing(counts map[string]int) string {
	best, bestCount := "medium", 0
	for _, p := range []string{"slow", "medium", "fast"} {
		if counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best
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
