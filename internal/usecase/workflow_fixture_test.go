package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	repoimpl "dms/internal/adapter/repository"
	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/internal/infrastructure/directory"
	"dms/internal/infrastructure/lock"
	"dms/pkg/errors"
)

const (
	alpha       = "Sub Distributor Alpha"
	beta        = "Sub Distributor Beta"
	operatorOne = "Operator One"
	operatorTwo = "Operator Two"
)

var (
	admin       = &entity.Actor{ID: "u-admin", Name: "Admin", Role: entity.RoleAdmin, Holder: entity.MainDistribution}
	manager     = &entity.Actor{ID: "u-manager", Name: "Manager", Role: entity.RoleManager, Holder: entity.MainDistribution}
	distributor = &entity.Actor{ID: "u-dist", Name: "Distributor", Role: entity.RoleDistributor, Holder: entity.MainDistribution}
	subAlpha    = &entity.Actor{ID: "u-sub-a", Name: "Alpha", Role: entity.RoleSubDistributor, Holder: alpha}
	subBeta     = &entity.Actor{ID: "u-sub-b", Name: "Beta", Role: entity.RoleSubDistributor, Holder: beta}
	opOne       = &entity.Actor{ID: "u-op-1", Name: "Op One", Role: entity.RoleOperator, Holder: operatorOne}
	opTwo       = &entity.Actor{ID: "u-op-2", Name: "Op Two", Role: entity.RoleOperator, Holder: operatorTwo}
)

type fixture struct {
	ctx   context.Context
	store repository.Store
	uc    *WorkflowUseCase
	macs  int
}

// steppingClock advances one second per call so every record gets a distinct,
// ordered timestamp.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

func testDirectory(t *testing.T) repository.Directory {
	t.Helper()
	dir, err := directory.New([]*entity.Holder{
		{Name: alpha, Tier: entity.LocationSubDistributor, Parent: entity.MainDistribution},
		{Name: beta, Tier: entity.LocationSubDistributor, Parent: entity.MainDistribution},
		{Name: operatorOne, Tier: entity.LocationOperator, Parent: alpha},
		{Name: operatorTwo, Tier: entity.LocationOperator, Parent: beta},
	}, nil)
	require.NoError(t, err)
	return dir
}

func newFixture(t *testing.T, opts ...WorkflowOption) *fixture {
	t.Helper()
	store := repoimpl.NewMemoryStore()
	opts = append([]WorkflowOption{WithClock(steppingClock()), WithIDGenerator(sequentialIDs())}, opts...)
	return &fixture{
		ctx:   context.Background(),
		store: store,
		uc:    NewWorkflowUseCase(store, testDirectory(t), lock.NewLocalLocker(), opts...),
	}
}

func (f *fixture) register(t *testing.T) *entity.Device {
	t.Helper()
	f.macs++
	d, err := f.uc.RegisterDevice(f.ctx, RegisterDeviceInput{
		MACAddress:   fmt.Sprintf("AA:BB:CC:DD:%02X:%02X", f.macs/256, f.macs%256),
		SerialNumber: fmt.Sprintf("SN-%04d", f.macs),
		Model:        "HG8245",
		Manufacturer: "Huawei",
	}, admin)
	require.NoError(t, err)
	return d
}

func (f *fixture) create(t *testing.T, from, to string, by *entity.Actor, devices ...*entity.Device) *entity.Distribution {
	t.Helper()
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	dist, err := f.uc.CreateDistribution(f.ctx, CreateDistributionInput{
		FromDistributor: from,
		ToDistributor:   to,
		DeviceIDs:       ids,
	}, by)
	require.NoError(t, err)
	return dist
}

// toAlpha ships devices from Main Distribution to Sub Distributor Alpha.
func (f *fixture) toAlpha(t *testing.T, devices ...*entity.Device) {
	t.Helper()
	dist := f.create(t, entity.MainDistribution, alpha, distributor, devices...)
	_, err := f.uc.ApproveDistribution(f.ctx, dist.ID, "", subAlpha)
	require.NoError(t, err)
}

// toOperatorOne ships devices all the way down to Operator One.
func (f *fixture) toOperatorOne(t *testing.T, devices ...*entity.Device) {
	t.Helper()
	f.toAlpha(t, devices...)
	dist := f.create(t, alpha, operatorOne, subAlpha, devices...)
	_, err := f.uc.ApproveDistribution(f.ctx, dist.ID, "", opOne)
	require.NoError(t, err)
}

func (f *fixture) fileDefect(t *testing.T, device *entity.Device, by *entity.Actor) *entity.DefectReport {
	t.Helper()
	r, err := f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    device.ID,
		DefectType:  entity.DefectHardware,
		Severity:    entity.SeverityHigh,
		Description: "No power after firmware update",
	}, by)
	require.NoError(t, err)
	return r
}

func (f *fixture) device(t *testing.T, id string) *entity.Device {
	t.Helper()
	d, err := f.store.GetDevice(f.ctx, id)
	require.NoError(t, err)
	return d
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Error())
}
