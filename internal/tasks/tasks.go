package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const QUEUE_NAME = "ciberseguridad"

const (
	TypeRansomwareScan = "ransomware:scan"
)

const (
	ScanTimeout   = 5 * time.Minute
	ScanRetention = 24 * time.Hour
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskInProgress = errors.New("task is still in progress")
	ErrTaskFailed     = errors.New("task failed")
)

func NewRansomwareScanTask(req types.ScanRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan request: %w", err)
	}
	return asynq.NewTask(TypeRansomwareScan, payload), nil
}

// ScanOptions are the enqueue options every ransomware scan uses.
func ScanOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(ScanTimeout),
		asynq.Retention(ScanRetention),
		asynq.Queue(QUEUE_NAME),
	}
}

// TaskInspector is the part of asynq.Inspector used to look up results.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

func GetTaskResult(inspector TaskInspector, taskID string) ([]byte, error) {
	task, err := inspector.GetTaskInfo(QUEUE_NAME, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("fail to find task, err: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	switch task.State {
	case asynq.TaskStateCompleted:
		return task.Result, nil
	case asynq.TaskStatePending, asynq.TaskStateActive, asynq.TaskStateScheduled, asynq.TaskStateRetry, asynq.TaskStateAggregating:
		return nil, ErrTaskInProgress
	default:
		return nil, fmt.Errorf("%w: %s", ErrTaskFailed, task.LastErr)
	}
}
