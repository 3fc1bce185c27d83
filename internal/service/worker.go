package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

// WorkerService runs ransomware scans taken from the task queue.
type WorkerService struct {
	db      storage.DatabaseStorage
	locker  ScanLocker
	flags   protection.FlagReader
	metrics *metrics.ScanMetrics
	logger  *logrus.Logger
	now     func() time.Time
}

func NewWorker(db storage.DatabaseStorage, locker ScanLocker, flags protection.FlagReader, m *metrics.ScanMetrics, logger *logrus.Logger) (*WorkerService, error) {
	if db == nil {
		return nil, fmt.Errorf("database storage cannot be nil")
	}
	return &WorkerService{
		db:      db,
		locker:  locker,
		flags:   flags,
		metrics: m,
		logger:  logger.WithField("service", "worker").Logger,
		now:     time.Now,
	}, nil
}

func (s *WorkerService) HandleRansomwareScan(ctx context.Context, t *asynq.Task) error {
	var req types.ScanRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	defer s.releaseLock(req)

	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.RunScan(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("target", req.Target()).Error("ransomware scan failed")
		return fmt.Errorf("scan failed: %v: %w", err, asynq.SkipRetry)
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if _, err := t.ResultWriter().Write(resultBytes); err != nil {
		s.logger.WithError(err).Error("t.ResultWriter.Write failed")
		return fmt.Errorf("t.ResultWriter.Write failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (s *WorkerService) releaseLock(req types.ScanRequest) {
	if s.locker == nil {
		return
	}
	if err := s.locker.Delete(context.Background(), scanLockKey(req.Target())); err != nil {
		s.logger.WithError(err).Warn("failed to release scan lock")
	}
}

// RunScan sweeps the requested endpoints and stores any incidents found.
// The flag is checked again because it may have been switched off after the
// task was queued.
func (s *WorkerService) RunScan(ctx context.Context, req types.ScanRequest) (types.ScanResult, error) {
	if !s.flags.Enabled(ctx, features.KeyRansomware) {
		return types.ScanResult{}, protection.ErrFeatureDisabled
	}

	result := types.ScanResult{
		StartedAt:   s.now().UTC(),
		ThreatLevel: protection.ThreatLevelLow,
		Incidents:   []types.RansomwareIncident{},
	}
	scan := func(e types.Endpoint) {
		result.Scanned++
		if incident, ok := protection.ScanEndpoint(e, s.now()); ok {
			result.Incidents = append(result.Incidents, incident)
		}
	}

	if req.EndpointID != nil {
		endpoint, err := s.db.GetEndpoint(ctx, *req.EndpointID)
		if err != nil {
			return types.ScanResult{}, fmt.Errorf("failed to load endpoint %s: %w", req.EndpointID, err)
		}
		scan(*endpoint)
	} else {
		for item := range s.db.StreamEndpoints(ctx) {
			if item.Err != nil {
				return types.ScanResult{}, fmt.Errorf("failed to stream endpoints: %w", item.Err)
			}
			scan(item.Row)
		}
		if err := ctx.Err(); err != nil {
			return types.ScanResult{}, err
		}
	}

	if err := s.db.InsertIncidents(ctx, result.Incidents); err != nil {
		return types.ScanResult{}, err
	}
	if len(result.Incidents) > 0 {
		result.ThreatLevel = protection.ThreatLevelHigh
	}
	s.metrics.RecordIncidents(len(result.Incidents))
	result.FinishedAt = s.now().UTC()

	s.logger.WithFields(logrus.Fields{
		"target":    req.Target(),
		"scanned":   result.Scanned,
		"incidents": len(result.Incidents),
	}).Info("ransomware scan completed")
	return result, nil
}
