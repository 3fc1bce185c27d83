package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const (
	scanLockTTL = 5 * time.Minute

	ReasonScanDisabled = "ransomware protection is disabled"
	ReasonScanRunning  = "a scan for this target is already running"
)

// Enqueuer is the part of asynq.Client the scan service needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ScanLocker marks a scan target as busy.
type ScanLocker interface {
	SetNX(ctx context.Context, key string, value string, expiry time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

func scanLockKey(target string) string {
	return "scan:" + target
}

// ScanService starts background ransomware scans.
type ScanService struct {
	client  Enqueuer
	locker  ScanLocker
	flags   protection.FlagReader
	metrics *metrics.ScanMetrics
	logger  *logrus.Logger
}

// NewScanService returns a scan service. locker may be nil, in which case
// duplicate scans are not suppressed.
func NewScanService(client Enqueuer, locker ScanLocker, flags protection.FlagReader, m *metrics.ScanMetrics, logger *logrus.Logger) *ScanService {
	return &ScanService{
		client:  client,
		locker:  locker,
		flags:   flags,
		metrics: m,
		logger:  logger.WithField("service", "scan").Logger,
	}
}

func (s *ScanService) Start(ctx context.Context, req types.ScanRequest) (types.ScanStarted, error) {
	if !s.flags.Enabled(ctx, features.KeyRansomware) {
		s.metrics.RecordRequest("disabled")
		return types.ScanStarted{Started: false, Reason: ReasonScanDisabled}, nil
	}

	key := scanLockKey(req.Target())
	if s.locker != nil {
		acquired, err := s.locker.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), scanLockTTL)
		if err != nil {
			s.logger.WithError(err).Warn("failed to take scan lock, enqueueing anyway")
		} else if !acquired {
			s.metrics.RecordRequest("duplicate")
			return types.ScanStarted{Started: false, Reason: ReasonScanRunning}, nil
		}
	}

	task, err := tasks.NewRansomwareScanTask(req)
	if err != nil {
		return types.ScanStarted{}, err
	}
	info, err := s.client.EnqueueContext(ctx, task, tasks.ScanOptions()...)
	if err != nil {
		s.metrics.RecordRequest("failed")
		if s.locker != nil {
			if derr := s.locker.Delete(ctx, key); derr != nil {
				s.logger.WithError(derr).Warn("failed to release scan lock")
			}
		}
		return types.ScanStarted{}, fmt.Errorf("fail to enqueue task, err: %w", err)
	}

	s.metrics.RecordRequest("enqueued")
	s.logger.WithFields(logrus.Fields{
		"task_id": info.ID,
		"target":  req.Target(),
	}).Info("ransomware scan enqueued")
	return types.ScanStarted{Started: true, TaskID: info.ID}, nil
}
