package repository

import (
	"context"

	"dms/internal/domain/entity"
)

type DeviceFilter struct {
	Status   entity.DeviceStatus
	Location entity.Location
	Holder   string
}

type DistributionFilter struct {
	Statuses []entity.DistributionStatus
	// Holder matches either side of the transfer.
	Holder string
}

type DefectReportFilter struct {
	Statuses []entity.DefectStatus
	DeviceID string
	Holder   string
}

type ReturnRequestFilter struct {
	Statuses        []entity.ReturnStatus
	DeviceID        string
	Holder          string
	CurrentApprover entity.Role
}

// DeviceEventFilter selects events that touch Holder on either side or were
// performed by PerformedBy. Empty fields match everything; Limit 0 is unbounded.
type DeviceEventFilter struct {
	Holder      string
	PerformedBy string
	Limit       int
}

type DeviceRepository interface {
	GetDevice(ctx context.Context, id string) (*entity.Device, error)
	FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error)
	FindDeviceBySerial(ctx context.Context, serial string) (*entity.Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter) ([]*entity.Device, error)
	ListDeviceEvents(ctx context.Context, deviceID string) ([]*entity.DeviceEvent, error)
	// ListRecentDeviceEvents returns events across all devices, newest first.
	ListRecentDeviceEvents(ctx context.Context, filter DeviceEventFilter) ([]*entity.DeviceEvent, error)
}

type DistributionRepository interface {
	GetDistribution(ctx context.Context, id string) (*entity.Distribution, error)
	FindDistributionByBatchID(ctx context.Context, batchID string) (*entity.Distribution, error)
	ListDistributions(ctx context.Context, filter DistributionFilter) ([]*entity.Distribution, error)
}

type DefectReportRepository interface {
	GetDefectReport(ctx context.Context, id string) (*entity.DefectReport, error)
	ListDefectReports(ctx context.Context, filter DefectReportFilter) ([]*entity.DefectReport, error)
}

type ReturnRequestRepository interface {
	GetReturnRequest(ctx context.Context, id string) (*entity.ReturnRequest, error)
	ListReturnRequests(ctx context.Context, filter ReturnRequestFilter) ([]*entity.ReturnRequest, error)
}

type NotificationRepository interface {
	GetNotification(ctx context.Context, id string) (*entity.Notification, error)
	// ListNotifications returns notifications for any of recipients, newest
	// first. A non-empty unreadBy drops those that user has already read.
	ListNotifications(ctx context.Context, recipients []string, unreadBy string) ([]*entity.Notification, error)
}

// Store is the entity store behind the workflow engine. Getters return
// copies; the only write path is Apply.
type Store interface {
	DeviceRepository
	DistributionRepository
	DefectReportRepository
	ReturnRequestRepository
	NotificationRepository

	// Apply writes every record of the changeset atomically, or none.
	Apply(ctx context.Context, cs *Changeset) error
}

// Changeset collects the full result of one transition. Records are upserted
// by ID.
type Changeset struct {
	Devices        []*entity.Device
	Distributions  []*entity.Distribution
	DefectReports  []*entity.DefectReport
	ReturnRequests []*entity.ReturnRequest
	DeviceEvents   []*entity.DeviceEvent
	Notifications  []*entity.Notification
}

func (c *Changeset) Empty() bool {
	return len(c.Devices) == 0 && len(c.Distributions) == 0 && len(c.DefectReports) == 0 &&
		len(c.ReturnRequests) == 0 && len(c.DeviceEvents) == 0 && len(c.Notifications) == 0
}

// Directory resolves holders and users. It is read-only at runtime.
type Directory interface {
	Holder(name string) (*entity.Holder, error)
	Holders() []*entity.Holder
	UserByEmail(email string) (*entity.User, error)
	UserByID(id string) (*entity.User, error)
}

// Locker provides mutual exclusion over named keys. The returned unlock
// releases every key.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}
