package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

// ReportPrefix starts every report key.
const ReportPrefix = "reports/"

var reportKeyPattern = regexp.MustCompile(`^reports/security-report-[0-9]{8}T[0-9]{6}Z-[0-9a-f]{8}\.json$`)

// FlagLister is the part of the feature store the report needs.
type FlagLister interface {
	GetAll(ctx context.Context) features.Set
}

// ReportService builds security snapshots and keeps them in block storage.
type ReportService struct {
	db     storage.DatabaseStorage
	flags  FlagLister
	blocks storage.BlockStorage
	logger *logrus.Logger
	now    func() time.Time
}

func NewReportService(db storage.DatabaseStorage, flags FlagLister, blocks storage.BlockStorage, logger *logrus.Logger) *ReportService {
	return &ReportService{
		db:     db,
		flags:  flags,
		blocks: blocks,
		logger: logger.WithField("service", "report").Logger,
		now:    time.Now,
	}
}

// Build collects the counters concurrently.
func (s *ReportService) Build(ctx context.Context) (types.SecurityReport, error) {
	report := types.SecurityReport{
		Generated: s.now().UTC(),
		Features:  make(map[string]bool),
	}
	for key, f := range s.flags.GetAll(ctx) {
		report.Features[key] = f.Enabled
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.db.CountDevices(gctx)
		report.Devices = n
		return err
	})
	g.Go(func() error {
		list, err := s.db.ListEndpoints(gctx, 0, 1)
		report.Endpoints = list.TotalCount
		return err
	})
	g.Go(func() error {
		counts, err := s.db.CountThreatsBySeverity(gctx)
		if err != nil {
			return err
		}
		report.ThreatsBySeverity = counts
		for _, n := range counts {
			report.Threats += n
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.db.CountIncidents(gctx)
		report.Incidents = n
		return err
	})
	if err := g.Wait(); err != nil {
		return types.SecurityReport{}, fmt.Errorf("failed to build report: %w", err)
	}
	return report, nil
}

// Export builds a report, stores it and returns its key.
func (s *ReportService) Export(ctx context.Context) (string, error) {
	report, err := s.Build(ctx)
	if err != nil {
		return "", err
	}
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	key := fmt.Sprintf("%ssecurity-report-%s-%s.json",
		ReportPrefix,
		report.Generated.Format("20060102T150405Z"),
		uuid.NewString()[:8],
	)
	if err := s.blocks.SaveFile(ctx, key, content); err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}
	s.logger.WithField("key", key).Info("security report exported")
	return key, nil
}

// Get returns a stored report. Keys not produced by Export are rejected
// with storage.ErrNotFound.
func (s *ReportService) Get(ctx context.Context, key string) ([]byte, error) {
	if !reportKeyPattern.MatchString(key) {
		return nil, storage.ErrNotFound
	}
	return s.blocks.GetFile(ctx, key)
}
