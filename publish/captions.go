package publish

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"scenescribe/pipeline"
)

// Publisher uploads generated narration as caption tracks.
type Publisher struct {
	service *youtube.Service
}

// NewPublisher authenticates against YouTube with a service account key file.
func NewPublisher(ctx context.Context, serviceAccountJSON []byte) (*Publisher, error) {
	config, err := google.JWTConfigFromJSON(serviceAccountJSON, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}

	client := config.Client(ctx)

	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}

	return &Publisher{service: service}, nil
}

// UploadCaptions attaches an SRT caption track to an already published video.
func (p *Publisher) UploadCaptions(ctx context.Context, videoID, language, srt string) (string, error) {
	caption := &youtube.Caption{
		Snippet: &youtube.CaptionSnippet{
			VideoId:  videoID,
			Language: language,
			Name:     "narration",
		},
	}

	call := p.service.Captions.Insert([]string{"snippet"}, caption)
	call = call.Media(strings.NewReader(srt))

	response, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload captions: %w", err)
	}

	log.Printf("Uploaded caption track %s to video %s", response.Id, videoID)
	return response.Id, nil
}

// CaptionTrack renders a timed script as SRT and uploads it as an English
// caption track.
func (p *Publisher) CaptionTrack(ctx context.Context, videoID string, result *pipeline.TimedScriptResult) (string, error) {
	return p.UploadCaptions(ctx, videoID, "en", SRT(result))
}

// SRT renders a timed script as SubRip text, one cue per segment.
func SRT(result *pipeline.TimedScriptResult) string {
	var b strings.Builder
	for i, seg := range result.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(seg.StartSec), formatTimestamp(seg.EndSec))
		fmt.Fprintf(&b, "%s\n\n", seg.Sentence)
	}
	return b.String()
}

func formatTimestamp(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
