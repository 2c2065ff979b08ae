package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scenescribe/generation"
)

type fakeGen struct {
	response string
	err      error
	gotParts []generation.Part
}

func (f *fakeGen) Generate(ctx context.Context, parts []generation.Part) (string, error) {
	f.gotParts = parts
	return f.response, f.err
}

type fakeUploader struct {
	uploadErr error
	awaitErr  error
	uploads   int
	polls     int
}

func (f *fakeUploader) Upload(ctx context.Context, path string) (*generation.UploadedFile, error) {
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &generation.UploadedFile{Name: "files/abc", URI: "https://media.example/files/abc"}, nil
}

func (f *fakeUploader) AwaitReady(ctx context.Context, name string, interval time.Duration, maxAttempts int) error {
	f.polls++
	return f.awaitErr
}

func tempVideo(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(p, []byte("mp4-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

const goodResponse = `{"totalDurationSec":10,"segments":[
  {"startSec":0,"endSec":4,"durationSec":4,"sentence":"First."},
  {"startSec":4,"endSec":10,"durationSec":6,"sentence":"Second."}]}`

func TestDirectRunUsesUploadedReference(t *testing.T) {
	gen := &fakeGen{response: goodResponse}
	up := &fakeUploader{}
	p := NewDirectPipeline(gen, up, 0, 3)

	res, err := p.Run(context.Background(), tempVideo(t))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	if gen.gotParts[0].FileData == nil {
		t.Error("expected the request to reference the uploaded file")
	}
	if up.uploads != 1 || up.polls != 1 {
		t.Errorf("uploads=%d polls=%d, want 1 each", up.uploads, up.polls)
	}
}

func TestDirectRunFallsBackToInlineBytesOnUploadFailure(t *testing.T) {
	gen := &fakeGen{response: goodResponse}
	up := &fakeUploader{uploadErr: errors.New("upload refused")}
	p := NewDirectPipeline(gen, up, 0, 3)

	if _, err := p.Run(context.Background(), tempVideo(t)); err != nil {
		t.Fatalf("Run should recover via inline bytes: %v", err)
	}
	if gen.gotParts[0].InlineData == nil {
		t.Error("expected inline media bytes in the fallback request")
	}
	if string(gen.gotParts[0].InlineData.Data) != "mp4-bytes" {
		t.Error("inline part does not carry the video bytes")
	}
}

func TestDirectRunFallsBackOnPollFailure(t *testing.T) {
	gen := &fakeGen{response: goodResponse}
	up := &fakeUploader{awaitErr: generation.ErrProcessingTimeout}
	p := NewDirectPipeline(gen, up, 0, 3)

	if _, err := p.Run(context.Background(), tempVideo(t)); err != nil {
		t.Fatalf("poll failure should fall back to inline bytes: %v", err)
	}
	if gen.gotParts[0].InlineData == nil {
		t.Error("expected inline media bytes after poll failure")
	}
}

func TestDirectRunNoFurtherFallbackAfterInline(t *testing.T) {
	gen := &fakeGen{err: errors.New("generation down")}
	up := &fakeUploader{uploadErr: errors.New("upload refused")}
	p := NewDirectPipeline(gen, up, 0, 3)

	if _, err := p.Run(context.Background(), tempVideo(t)); err == nil {
		t.Fatal("expected failure once the inline attempt also fails")
	}
}

func TestValidateTimedScriptFiltersBadSegments(t *testing.T) {
	raw := TimedScriptResult{
		TotalDurationSec: 12,
		Segments: []TimedSegment{
			{StartSec: 0, EndSec: 3, Sentence: "keep me"},
			{StartSec: 3, EndSec: 3, Sentence: "zero width"},
			{StartSec: 5, EndSec: 4, Sentence: "backwards"},
			{StartSec: 6, EndSec: 9, Sentence: "   "},
			{StartSec: 9, EndSec: 12, DurationSec: 99, Sentence: "recompute me"},
		},
	}
	res, err := ValidateTimedScript(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(res.Segments), res.Segments)
	}
	if res.Segments[1].DurationSec != 3 {
		t.Errorf("duration not recomputed from endpoints: %+v", res.Segments[1])
	}
}

func TestValidateTimedScriptAllDiscarded(t *testing.T) {
	raw := TimedScriptResult{Segments: []TimedSegment{
		{StartSec: 1, EndSec: 1, Sentence: "x"},
		{StartSec: 2, EndSec: 5, Sentence: ""},
	}}
	if _, err := ValidateTimedScript(raw); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("got %v, want ErrEmptyResult", err)
	}
}
