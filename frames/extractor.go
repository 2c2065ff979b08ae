package frames

import (
	"context"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"scenescribe/config"
)

// FFmpegExtractor captures still images with ffmpeg. One invocation per
// sample time; seeking happens on the input side so capture cost does not
// grow with timestamp.
type FFmpegExtractor struct{}

// NewFFmpegExtractor returns an extractor backed by the ffmpeg binary.
func NewFFmpegExtractor() *FFmpegExtractor {
	return &FFmpegExtractor{}
}

// Extract writes a single JPEG frame sampled at timestamp to destPath.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath string, timestamp float64, destPath string) error {
	err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", timestamp)}).
		Output(destPath, ffmpeg.KwArgs{
			"vframes": 1,
			"q:v":     config.FrameQuality,
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}
