package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scenescribe/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
	})
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(p, []byte("fake video"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUploadReturnsFileReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Goog-Upload-Protocol") != "raw" {
			t.Error("missing raw upload protocol header")
		}
		fmt.Fprint(w, `{"file":{"name":"files/xyz","uri":"https://media.example/files/xyz","state":"PROCESSING"}}`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Upload(context.Background(), writeTempVideo(t))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if got.Name != "files/xyz" || got.URI != "https://media.example/files/xyz" {
		t.Errorf("unexpected reference: %+v", got)
	}
}

func TestUploadMissingReferenceMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"file":{"state":"PROCESSING"}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Upload(context.Background(), writeTempVideo(t))
	if !errors.Is(err, ErrUploadIncomplete) {
		t.Errorf("got %v, want ErrUploadIncomplete", err)
	}
}

func TestAwaitReadyTimesOutAfterMaxAttempts(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		fmt.Fprint(w, `{"name":"files/xyz","state":"PROCESSING"}`)
	}))
	defer srv.Close()

	err := testClient(srv.URL).AwaitReady(context.Background(), "files/xyz", 0, 60)
	if !errors.Is(err, ErrProcessingTimeout) {
		t.Fatalf("got %v, want ErrProcessingTimeout", err)
	}
	if polls != 60 {
		t.Errorf("polled %d times, want 60", polls)
	}
}

func TestAwaitReadyStopsOnFailedState(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		fmt.Fprint(w, `{"name":"files/xyz","state":"FAILED"}`)
	}))
	defer srv.Close()

	err := testClient(srv.URL).AwaitReady(context.Background(), "files/xyz", 0, 60)
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("got %v, want ErrProcessingFailed", err)
	}
	if polls != 1 {
		t.Errorf("polled %d times, want 1", polls)
	}
}

func TestAwaitReadyBecomesActive(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		state := "PROCESSING"
		if polls >= 3 {
			state = "ACTIVE"
		}
		fmt.Fprintf(w, `{"name":"files/xyz","state":%q}`, state)
	}))
	defer srv.Close()

	if err := testClient(srv.URL).AwaitReady(context.Background(), "files/xyz", 0, 60); err != nil {
		t.Fatalf("AwaitReady error: %v", err)
	}
	if polls != 3 {
		t.Errorf("polled %d times, want 3", polls)
	}
}

func TestAwaitReadyTreatsUnknownStateAsReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"files/xyz","state":"SOMETHING_NEW"}`)
	}))
	defer srv.Close()

	if err := testClient(srv.URL).AwaitReady(context.Background(), "files/xyz", 0, 1); err != nil {
		t.Errorf("unknown state should not block: %v", err)
	}
}
