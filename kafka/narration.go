package kafka

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"scenescribe/pipeline"
)

// NarrationRequest is the message shape consumed from the narration topic.
type NarrationRequest struct {
	JobID      string  `json:"job_id"`
	VideoURL   string  `json:"video_url,omitempty"`
	VideoPath  string  `json:"video_path,omitempty"`
	Subject    string  `json:"subject"`
	Timestamps string  `json:"timestamps"`
	Duration   float64 `json:"duration,omitempty"`
}

// NarrationProcessor runs the narration pipeline for one request.
type NarrationProcessor interface {
	ProcessRequest(ctx context.Context, req NarrationRequest) error
}

// NewNarrationConsumer builds a consumer that feeds narration requests to the
// processor. Requests without a job id or a video reference are skipped and
// marked; processing failures stay unmarked for retry.
func NewNarrationConsumer(config ConsumerConfig, processor NarrationProcessor) (*Consumer, error) {
	config.Handler = &TypedMessageHandler[NarrationRequest]{
		Validate: func(msg *NarrationRequest) bool {
			if msg.JobID == "" {
				log.Printf("Message missing job_id, skipping")
				return false
			}
			if msg.VideoURL == "" && msg.VideoPath == "" {
				log.Printf("Message %s has no video reference, skipping", msg.JobID)
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *NarrationRequest) error {
			log.Printf("Processing narration request: job_id=%s", msg.JobID)
			if err := processor.ProcessRequest(ctx, *msg); err != nil {
				log.Printf("Failed to process narration request %s: %v", msg.JobID, err)
				return err
			}
			log.Printf("Finished narration request: job_id=%s", msg.JobID)
			return nil
		},
		AlwaysMark: true,
	}
	return NewConsumer(config)
}

// StartNarrationConsumer runs the consumer until SIGINT/SIGTERM and then
// shuts it down, giving in-flight processing a moment to complete.
func StartNarrationConsumer(config ConsumerConfig, processor NarrationProcessor) error {
	consumer, err := NewNarrationConsumer(config, processor)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		return err
	}

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigterm:
		log.Println("Received termination signal")
	case <-ctx.Done():
		log.Println("Context canceled")
	}

	cancel()
	time.Sleep(2 * time.Second)

	return consumer.Close()
}

// ResolveVideo makes sure the request's video is available locally, fetching
// it into workDir when only a URL is given.
func ResolveVideo(req NarrationRequest, workDir string) (string, error) {
	if req.VideoPath != "" {
		return req.VideoPath, nil
	}
	dest := filepath.Join(workDir, req.JobID+".mp4")
	if err := pipeline.DownloadVideo(req.VideoURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
