package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/storage/storagetest"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

var testLogger = logrus.New()

type flagMap map[string]bool

func (f flagMap) Enabled(_ context.Context, key string) bool { return f[key] }

func (f flagMap) GetAll(_ context.Context) features.Set {
	set := features.DefaultFlags()
	for k, fl := range set {
		fl.Enabled = f[k]
		set[k] = fl
	}
	return set
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: tasks.QUEUE_NAME, Type: task.Type()}, nil
}

type memLocker struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemLocker() *memLocker {
	return &memLocker{keys: make(map[string]string)}
}

func (m *memLocker) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	return true, nil
}

func (m *memLocker) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func TestInventoryService_SanitizesInput(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	svc, err := service.NewInventoryService(db, testLogger)
	require.NoError(t, err)

	expected := types.DeviceCreateDto{Hostname: "srv-01", OS: "Linux"}
	db.On("CreateDevice", mock.Anything, expected).Return(&types.Device{ID: 1, Hostname: "srv-01", OS: "Linux"}, nil)

	device, err := svc.CreateDevice(context.Background(), types.DeviceCreateDto{
		Hostname: "<script>alert(1)</script>srv-01",
		OS:       " <b>Linux</b> ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), device.ID)
	db.AssertExpectations(t)
}

func TestInventoryService_KeepsPlainText(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	svc, err := service.NewInventoryService(db, testLogger)
	require.NoError(t, err)

	expected := types.DeviceCreateDto{Hostname: "R&D-srv", OS: `Windows 11 "Pro" O'Neil`}
	db.On("CreateDevice", mock.Anything, expected).Return(&types.Device{ID: 2, Hostname: expected.Hostname, OS: expected.OS}, nil)

	_, err = svc.CreateDevice(context.Background(), types.DeviceCreateDto{
		Hostname: "R&D-srv",
		OS:       `Windows 11 "Pro" O'Neil`,
	})
	require.NoError(t, err)

	db.On("CreateThreat", mock.Anything, mock.MatchedBy(func(dto types.ThreatCreateDto) bool {
		return dto.Name == "x" && dto.Description == `R&D "Pro"`
	})).Return(&types.Threat{Name: "x"}, nil)
	_, err = svc.CreateThreat(context.Background(), types.ThreatCreateDto{
		Name:        "<b>x</b>",
		Type:        types.ThreatMalware,
		Severity:    types.SeverityLow,
		Description: `R&D <i>"Pro"</i>`,
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestInventoryService_RejectsEmptyAfterSanitize(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	svc, err := service.NewInventoryService(db, testLogger)
	require.NoError(t, err)

	_, err = svc.CreateDevice(context.Background(), types.DeviceCreateDto{Hostname: "<img src=x>"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	db.AssertNotCalled(t, "CreateDevice", mock.Anything, mock.Anything)
}

func TestInventoryService_NotFoundPassesThrough(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	svc, err := service.NewInventoryService(db, testLogger)
	require.NoError(t, err)

	db.On("DeleteDevice", mock.Anything, int64(7)).Return(storage.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDevice(context.Background(), 7), storage.ErrNotFound)
}

func TestNewInventoryService_NilDB(t *testing.T) {
	_, err := service.NewInventoryService(nil, testLogger)
	assert.Error(t, err)
}

func TestScanService_Start(t *testing.T) {
	ctx := context.Background()
	enq := &fakeEnqueuer{}
	locker := newMemLocker()
	svc := service.NewScanService(enq, locker, flagMap{features.KeyRansomware: true}, nil, testLogger)

	started, err := svc.Start(ctx, types.ScanRequest{})
	require.NoError(t, err)
	assert.True(t, started.Started)
	assert.Equal(t, "task-1", started.TaskID)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypeRansomwareScan, enq.tasks[0].Type())

	again, err := svc.Start(ctx, types.ScanRequest{})
	require.NoError(t, err)
	assert.False(t, again.Started)
	assert.Equal(t, service.ReasonScanRunning, again.Reason)
	assert.Len(t, enq.tasks, 1)

	id := uuid.New()
	other, err := svc.Start(ctx, types.ScanRequest{EndpointID: &id})
	require.NoError(t, err)
	assert.True(t, other.Started)
}

func TestScanService_Disabled(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := service.NewScanService(enq, nil, flagMap{features.KeyRansomware: false}, nil, testLogger)

	started, err := svc.Start(context.Background(), types.ScanRequest{})
	require.NoError(t, err)
	assert.False(t, started.Started)
	assert.Equal(t, service.ReasonScanDisabled, started.Reason)
	assert.Empty(t, enq.tasks)
}

func TestScanService_EnqueueFailureReleasesLock(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	locker := newMemLocker()
	svc := service.NewScanService(enq, locker, flagMap{features.KeyRansomware: true}, nil, testLogger)

	_, err := svc.Start(context.Background(), types.ScanRequest{})
	require.Error(t, err)
	assert.Empty(t, locker.keys)
}

func TestWorkerService_RunScan(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	risky := types.Endpoint{ID: uuid.New(), Name: "db-01", RiskScore: 90}
	safe := types.Endpoint{ID: uuid.New(), Name: "ws-01", RiskScore: 5, ProtectionStatus: types.StatusProtected}
	db.On("StreamEndpoints", mock.Anything).Return([]types.Endpoint{risky, safe}, nil)
	db.On("InsertIncidents", mock.Anything, mock.MatchedBy(func(in []types.RansomwareIncident) bool {
		return len(in) == 1 && in[0].EndpointID == risky.ID
	})).Return(nil)

	w, err := service.NewWorker(db, nil, flagMap{features.KeyRansomware: true}, nil, testLogger)
	require.NoError(t, err)

	result, err := w.RunScan(context.Background(), types.ScanRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, protection.ThreatLevelHigh, result.ThreatLevel)
	require.Len(t, result.Incidents, 1)
	db.AssertExpectations(t)
}

func TestWorkerService_RunScanSingleEndpoint(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	ep := types.Endpoint{ID: uuid.New(), RiskScore: 10}
	db.On("GetEndpoint", mock.Anything, ep.ID).Return(&ep, nil)
	db.On("InsertIncidents", mock.Anything, []types.RansomwareIncident{}).Return(nil)

	w, err := service.NewWorker(db, nil, flagMap{features.KeyRansomware: true}, nil, testLogger)
	require.NoError(t, err)

	result, err := w.RunScan(context.Background(), types.ScanRequest{EndpointID: &ep.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, protection.ThreatLevelLow, result.ThreatLevel)
}

func TestWorkerService_RunScanStreamError(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	db.On("StreamEndpoints", mock.Anything).Return([]types.Endpoint{}, errors.New("connection reset"))

	w, err := service.NewWorker(db, nil, flagMap{features.KeyRansomware: true}, nil, testLogger)
	require.NoError(t, err)

	_, err = w.RunScan(context.Background(), types.ScanRequest{})
	assert.Error(t, err)
	db.AssertNotCalled(t, "InsertIncidents", mock.Anything, mock.Anything)
}

func TestWorkerService_RunScanDisabled(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	w, err := service.NewWorker(db, nil, flagMap{}, nil, testLogger)
	require.NoError(t, err)

	_, err = w.RunScan(context.Background(), types.ScanRequest{})
	assert.ErrorIs(t, err, protection.ErrFeatureDisabled)
}

func TestWorkerService_HandleBadPayload(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	w, err := service.NewWorker(db, nil, flagMap{features.KeyRansomware: true}, nil, testLogger)
	require.NoError(t, err)

	err = w.HandleRansomwareScan(context.Background(), asynq.NewTask(tasks.TypeRansomwareScan, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWorkerService_CancelledTaskReleasesLock(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	locker := newMemLocker()
	locker.keys["scan:all"] = "busy"
	w, err := service.NewWorker(db, locker, flagMap{features.KeyRansomware: true}, nil, testLogger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.HandleRansomwareScan(ctx, asynq.NewTask(tasks.TypeRansomwareScan, []byte("{}")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, locker.keys)
	db.AssertNotCalled(t, "StreamEndpoints", mock.Anything)
}

func TestReportService_ExportAndGet(t *testing.T) {
	ctx := context.Background()
	db := &storagetest.MockDatabaseStorage{}
	db.On("CountDevices", mock.Anything).Return(3, nil)
	db.On("ListEndpoints", mock.Anything, 0, 1).Return(types.EndpointsPaginatedList{TotalCount: 5}, nil)
	db.On("CountThreatsBySeverity", mock.Anything).Return(map[types.Severity]int{
		types.SeverityHigh: 2,
		types.SeverityLow:  1,
	}, nil)
	db.On("CountIncidents", mock.Anything).Return(4, nil)

	blocks, err := storage.NewLocalBlockStorage(t.TempDir())
	require.NoError(t, err)
	svc := service.NewReportService(db, flagMap{features.KeyRansomware: true}, blocks, testLogger)

	report, err := svc.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Devices)
	assert.Equal(t, 5, report.Endpoints)
	assert.Equal(t, 3, report.Threats)
	assert.Equal(t, 4, report.Incidents)
	assert.True(t, report.Features[features.KeyRansomware])
	assert.False(t, report.Features[features.KeyCloudSecurity])

	key, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^reports/security-report-`, key)

	content, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"incidents": 4`)

	_, err = svc.Get(ctx, "reports/../../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportService_BuildError(t *testing.T) {
	db := &storagetest.MockDatabaseStorage{}
	db.On("CountDevices", mock.Anything).Return(0, errors.New("db down"))
	db.On("ListEndpoints", mock.Anything, 0, 1).Return(types.EndpointsPaginatedList{}, nil)
	db.On("CountThreatsBySeverity", mock.Anything).Return(map[types.Severity]int{}, nil)
	db.On("CountIncidents", mock.Anything).Return(0, nil)

	blocks, err := storage.NewLocalBlockStorage(t.TempDir())
	require.NoError(t, err)
	svc := service.NewReportService(db, flagMap{}, blocks, testLogger)

	_, err = svc.Export(context.Background())
	assert.Error(t, err)
}
