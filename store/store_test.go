package store

import (
	"context"
	"io"
	"testing"
)

type fakePutter struct {
	keys        []string
	contentType string
	lastBody    []byte
}

func (f *fakePutter) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	f.keys = append(f.keys, key)
	f.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.lastBody = data
	return nil
}

func TestArtifactStoreKeysUnderPrefix(t *testing.T) {
	putter := &fakePutter{}
	store := NewArtifactStore(putter, "bucket", "narration")

	key, err := store.PutJSON(context.Background(), "job-1", "script", map[string]string{"script": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if key != "narration/job-1/script.json" {
		t.Errorf("key = %q", key)
	}
	if putter.contentType != "application/json" {
		t.Errorf("content type = %q", putter.contentType)
	}

	key, err = store.PutText(context.Background(), "job-1", "captions.srt", "1\n00:00:00,000 --> 00:00:03,000\nhi\n")
	if err != nil {
		t.Fatal(err)
	}
	if key != "narration/job-1/captions.srt" {
		t.Errorf("key = %q", key)
	}
	if string(putter.lastBody) == "" {
		t.Error("text body not written")
	}
}

func TestCacheKeyNormalizesTimestampSpacing(t *testing.T) {
	a := CacheKey("/tmp/v.mp4", "History", "5, 5, 2, 30")
	b := CacheKey("/tmp/v.mp4", "history", "5,5,2,30")
	if a != b {
		t.Error("equivalent inputs should share a cache key")
	}

	c := CacheKey("/tmp/v.mp4", "history", "5,5,2,31")
	if a == c {
		t.Error("different timestamps must not collide")
	}
}
