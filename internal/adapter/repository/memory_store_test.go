package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

func device(id, mac, serial string, at time.Time) *entity.Device {
	return &entity.Device{
		ID:              id,
		MACAddress:      mac,
		SerialNumber:    serial,
		Status:          entity.DeviceActive,
		CurrentHolder:   entity.MainDistribution,
		CurrentLocation: entity.LocationMainDistribution,
		RegisteredAt:    at,
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.Apply(ctx, &repository.Changeset{
		Devices: []*entity.Device{device("d1", "AA:BB:CC:DD:EE:01", "SN1", now)},
	}))

	got, err := s.GetDevice(ctx, "d1")
	require.NoError(t, err)
	got.CurrentHolder = "somebody"

	again, err := s.GetDevice(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, entity.MainDistribution, again.CurrentHolder)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetDevice(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	_, err = s.FindDeviceByMAC(ctx, "AA:BB:CC:DD:EE:01")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	_, err = s.GetDistribution(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	_, err = s.GetReturnRequest(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMemoryStoreApplyRejectsDuplicatesAtomically(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.Apply(ctx, &repository.Changeset{
		Devices: []*entity.Device{device("d1", "AA:BB:CC:DD:EE:01", "SN1", now)},
	}))

	err := s.Apply(ctx, &repository.Changeset{
		Devices: []*entity.Device{
			device("d2", "AA:BB:CC:DD:EE:02", "SN2", now),
			device("d3", "AA:BB:CC:DD:EE:01", "SN3", now),
		},
	})
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "macAddress")

	_, err = s.GetDevice(ctx, "d2")
	assert.True(t, errors.Is(err, errors.CodeNotFound), "no device from a failed changeset is written")
}

func TestMemoryStoreUpdateKeepsOwnIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := device("d1", "AA:BB:CC:DD:EE:01", "SN1", time.Now())

	require.NoError(t, s.Apply(ctx, &repository.Changeset{Devices: []*entity.Device{d}}))

	d.CurrentHolder = "Sub Distributor Alpha"
	require.NoError(t, s.Apply(ctx, &repository.Changeset{Devices: []*entity.Device{d}}))

	got, err := s.FindDeviceBySerial(ctx, "SN1")
	require.NoError(t, err)
	assert.Equal(t, "Sub Distributor Alpha", got.CurrentHolder)
}

func TestMemoryStoreListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Apply(ctx, &repository.Changeset{
		Distributions: []*entity.Distribution{
			{ID: "b", BatchID: "B1", FromDistributor: "A", ToDistributor: "X", Status: entity.DistributionPending, CreatedAt: base},
			{ID: "a", BatchID: "B2", FromDistributor: "A", ToDistributor: "Y", Status: entity.DistributionPending, CreatedAt: base},
			{ID: "c", BatchID: "B3", FromDistributor: "Z", ToDistributor: "X", Status: entity.DistributionApproved, CreatedAt: base.Add(time.Hour)},
		},
	}))

	all, err := s.ListDistributions(ctx, repository.DistributionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending, err := s.ListDistributions(ctx, repository.DistributionFilter{
		Statuses: []entity.DistributionStatus{entity.DistributionPending},
		Holder:   "X",
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestMemoryStoreNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.Apply(ctx, &repository.Changeset{
		Notifications: []*entity.Notification{
			{ID: "n1", Recipient: "Operator One", CreatedAt: now},
			{ID: "n2", Recipient: "role:operator", ReadBy: []string{"u-op-1"}, CreatedAt: now.Add(time.Minute)},
			{ID: "n3", Recipient: "Operator Two", CreatedAt: now},
		},
	}))

	all, err := s.ListNotifications(ctx, []string{"Operator One", "role:operator"}, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unread, err := s.ListNotifications(ctx, []string{"Operator One", "role:operator"}, "u-op-1")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n1", unread[0].ID)

	other, err := s.ListNotifications(ctx, []string{"role:operator"}, "u-op-2")
	require.NoError(t, err)
	require.Len(t, other, 1, "read state belongs to the reader, not the address")
	assert.Equal(t, "n2", other[0].ID)
}

func TestMemoryStoreRecentDeviceEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.Apply(ctx, &repository.Changeset{
		DeviceEvents: []*entity.DeviceEvent{
			{ID: "e1", DeviceID: "d1", ToHolder: "Main Distribution", PerformedBy: "u-admin", At: now},
			{ID: "e2", DeviceID: "d1", FromHolder: "Main Distribution", ToHolder: "Alpha", PerformedBy: "u-sub-a", At: now.Add(time.Minute)},
			{ID: "e3", DeviceID: "d2", FromHolder: "Alpha", ToHolder: "Operator One", PerformedBy: "u-op-1", At: now.Add(2 * time.Minute)},
		},
	}))

	tests := []struct {
		name   string
		filter repository.DeviceEventFilter
		want   []string
	}{
		{"all newest first", repository.DeviceEventFilter{}, []string{"e3", "e2", "e1"}},
		{"limited", repository.DeviceEventFilter{Limit: 2}, []string{"e3", "e2"}},
		{"holder on either side", repository.DeviceEventFilter{Holder: "Alpha"}, []string{"e3", "e2"}},
		{"holder or performer", repository.DeviceEventFilter{Holder: "Operator One", PerformedBy: "u-admin"}, []string{"e3", "e1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.ListRecentDeviceEvents(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]string, len(events))
			for i, e := range events {
				got[i] = e.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStoreApplyHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryStore().Apply(ctx, &repository.Changeset{
		Devices: []*entity.Device{device("d1", "AA:BB:CC:DD:EE:01", "SN1", time.Now())},
	})
	assert.Error(t, err)
}
