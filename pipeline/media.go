package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeDuration reads a video's total duration in seconds via ffprobe.
func ProbeDuration(videoPath string) (float64, error) {
	out, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var meta struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	d, err := strconv.ParseFloat(meta.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported no usable duration: %w", err)
	}
	return d, nil
}

// DownloadVideo fetches a remote video to a local path. Used by the API and
// Kafka surfaces when a request carries a URL instead of a local file.
func DownloadVideo(url string, destPath string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}
