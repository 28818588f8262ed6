package events

// Entity types
const (
	EntityBatch = "batch"
	EntityImage = "image" // entity ID is the task index within its batch
)

// Event type constants
const (
	EventBatchStarted    = "batch.started"
	EventImageCompressed = "image.compressed"
	EventImageFailed     = "image.failed"
)

// BatchStarted is emitted once per dispatch, before any task runs.
type BatchStarted struct {
	BaseEvent
	BatchID    string  `json:"batch_id"`
	TaskCount  int     `json:"task_count"`
	OutputRoot string  `json:"output_root"`
	Quality    float32 `json:"quality"`
	Mirror     bool    `json:"mirror"`
}

// ImageCompressed is the completion event for one task.
type ImageCompressed struct {
	BaseEvent
	BatchID        string `json:"batch_id"`
	SourcePath     string `json:"source_path"`
	FinalPath      string `json:"final_path"`
	OriginalSize   int64  `json:"original_size"`
	CompressedSize int64  `json:"compressed_size"`
}

// Ratio returns compressed size as a fraction of the original (0 if unknown).
func (e *ImageCompressed) Ratio() float64 {
	if e.OriginalSize <= 0 {
		return 0
	}
	return float64(e.CompressedSize) / float64(e.OriginalSize)
}

// ImageFailed is emitted instead of ImageCompressed when a task aborts.
type ImageFailed struct {
	BaseEvent
	BatchID    string `json:"batch_id"`
	SourcePath string `json:"source_path"`
	Reason     string `json:"reason"`
}

func (e *BatchStarted) Batch() string    { return e.BatchID }
func (e *ImageCompressed) Batch() string { return e.BatchID }
func (e *ImageFailed) Batch() string     { return e.BatchID }
