package config

import "time"

// Scene and Frame Constants
const (
	// FrameInterval is the sampling interval between extracted frames, in seconds
	FrameInterval = 5.0

	// FrameQuality is the ffmpeg JPEG quality factor for extracted stills (lower is better)
	FrameQuality = 2
)

// Narration Constants
const (
	// WordsPerSecond is the speaking-rate ceiling used to budget narration length
	WordsPerSecond = 2.5

	// ScriptContextWindow is how many prior scene scripts are carried as
	// continuity context in the per-scene fallback path
	ScriptContextWindow = 2
)

// Generation Service Constants
const (
	// SceneCallDelay is the wait time between per-scene fallback calls,
	// purely to respect the service's request-rate limits
	SceneCallDelay = 2 * time.Second

	// PollInterval is the wait time between upload-processing status polls
	PollInterval = 5 * time.Second

	// MaxPollAttempts bounds the upload-processing poll loop
	MaxPollAttempts = 60

	// RequestTimeout is the HTTP client timeout for generation calls; video
	// requests can legitimately take minutes
	RequestTimeout = 5 * time.Minute
)

// Directory Constants
const (
	// FramesDir is the working directory for extracted frames
	FramesDir = "frames"

	// OutputDir is the directory for generated scripts
	OutputDir = "output"
)
