package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/iquiquesec/ciberseguridad/internal/config"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

// InventoryService manages devices, endpoints, threats and policies. Free
// text is stripped of markup before it reaches the database because the
// admin page renders it.
type InventoryService struct {
	db        storage.DatabaseStorage
	sanitizer *bluemonday.Policy
	logger    *logrus.Logger
}

func NewInventoryService(db storage.DatabaseStorage, logger *logrus.Logger) (*InventoryService, error) {
	if db == nil {
		return nil, fmt.Errorf("database storage cannot be nil")
	}
	return &InventoryService{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.WithField("service", "inventory").Logger,
	}, nil
}

// clean strips markup and stores the plain text. Sanitize escapes entities,
// so they are decoded again before the value reaches storage.
func (s *InventoryService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

func (s *InventoryService) cleanPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := s.clean(*v)
	return &c
}

func (s *InventoryService) ListDevices(ctx context.Context) ([]types.Device, error) {
	devices, err := s.db.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []types.Device{}
	}
	return devices, nil
}

func (s *InventoryService) GetDevice(ctx context.Context, id int64) (*types.Device, error) {
	return s.db.GetDevice(ctx, id)
}

func (s *InventoryService) CreateDevice(ctx context.Context, dto types.DeviceCreateDto) (*types.Device, error) {
	dto.Hostname = s.clean(dto.Hostname)
	dto.OS = s.clean(dto.OS)
	if dto.Hostname == "" {
		return nil, fmt.Errorf("%w: hostname is empty", ErrInvalidInput)
	}
	device, err := s.db.CreateDevice(ctx, dto)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("device_id", device.ID).Info("device created")
	return device, nil
}

func (s *InventoryService) UpdateDevice(ctx context.Context, id int64, dto types.DeviceUpdateDto) (*types.Device, error) {
	dto.Hostname = s.cleanPtr(dto.Hostname)
	dto.OS = s.cleanPtr(dto.OS)
	if dto.Hostname != nil && *dto.Hostname == "" {
		return nil, fmt.Errorf("%w: hostname is empty", ErrInvalidInput)
	}
	return s.db.UpdateDevice(ctx, id, dto)
}

func (s *InventoryService) DeleteDevice(ctx context.Context, id int64) error {
	if err := s.db.DeleteDevice(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("device_id", id).Info("device deleted")
	return nil
}

func (s *InventoryService) ListEndpoints(ctx context.Context, skip, take int) (types.EndpointsPaginatedList, error) {
	list, err := s.db.ListEndpoints(ctx, skip, take)
	if err != nil {
		return types.EndpointsPaginatedList{}, err
	}
	if list.Endpoints == nil {
		list.Endpoints = []types.Endpoint{}
	}
	return list, nil
}

func (s *InventoryService) GetEndpoint(ctx context.Context, id uuid.UUID) (*types.Endpoint, error) {
	return s.db.GetEndpoint(ctx, id)
}

func (s *InventoryService) cleanEndpoint(dto types.EndpointCreateDto) (types.EndpointCreateDto, error) {
	dto.Name = s.clean(dto.Name)
	dto.Hostname = s.clean(dto.Hostname)
	dto.OS = s.clean(dto.OS)
	dto.OSVersion = s.clean(dto.OSVersion)
	if dto.Name == "" {
		return dto, fmt.Errorf("%w: name is empty", ErrInvalidInput)
	}
	return dto, nil
}

func (s *InventoryService) CreateEndpoint(ctx context.Context, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	dto, err := s.cleanEndpoint(dto)
	if err != nil {
		return nil, err
	}
	return s.db.CreateEndpoint(ctx, dto)
}

func (s *InventoryService) UpdateEndpoint(ctx context.Context, id uuid.UUID, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	dto, err := s.cleanEndpoint(dto)
	if err != nil {
		return nil, err
	}
	return s.db.UpdateEndpoint(ctx, id, dto)
}

func (s *InventoryService) DeleteEndpoint(ctx context.Context, id uuid.UUID) error {
	return s.db.DeleteEndpoint(ctx, id)
}

func (s *InventoryService) ListThreats(ctx context.Context, skip, take int) ([]types.Threat, error) {
	threats, err := s.db.ListThreats(ctx, skip, take)
	if err != nil {
		return nil, err
	}
	if threats == nil {
		threats = []types.Threat{}
	}
	return threats, nil
}

func (s *InventoryService) CreateThreat(ctx context.Context, dto types.ThreatCreateDto) (*types.Threat, error) {
	dto.Name = s.clean(dto.Name)
	dto.Description = s.clean(dto.Description)
	dto.ActionTaken = s.clean(dto.ActionTaken)
	if dto.Name == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidInput)
	}
	threat, err := s.db.CreateThreat(ctx, dto)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"threat_id": threat.ID,
		"severity":  threat.Severity,
	}).Info("threat recorded")
	return threat, nil
}

func (s *InventoryService) ListIncidents(ctx context.Context, skip, take int) ([]types.RansomwareIncident, error) {
	incidents, err := s.db.ListIncidents(ctx, skip, take)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []types.RansomwareIncident{}
	}
	return incidents, nil
}

func (s *InventoryService) ListPolicies(ctx context.Context) ([]types.SecurityPolicy, error) {
	policies, err := s.db.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}
	if policies == nil {
		policies = []types.SecurityPolicy{}
	}
	return policies, nil
}

// SeedPolicies loads the YAML catalog at path and upserts it.
func (s *InventoryService) SeedPolicies(ctx context.Context, path string) error {
	policies, err := config.LoadPolicyCatalog(path)
	if err != nil {
		return err
	}
	if err := s.db.UpsertPolicies(ctx, policies); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	s.logger.WithField("count", len(policies)).Info("security policies seeded")
	return nil
}
