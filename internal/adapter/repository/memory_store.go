package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

// memoryStore keeps every collection in maps guarded by one RWMutex, so a
// reader never sees a changeset half applied.
type memoryStore struct {
	mu             sync.RWMutex
	devices        map[string]*entity.Device
	distributions  map[string]*entity.Distribution
	defectReports  map[string]*entity.DefectReport
	returnRequests map[string]*entity.ReturnRequest
	deviceEvents   map[string]*entity.DeviceEvent
	notifications  map[string]*entity.Notification
}

func NewMemoryStore() repository.Store {
	return &memoryStore{
		devices:        make(map[string]*entity.Device),
		distributions:  make(map[string]*entity.Distribution),
		defectReports:  make(map[string]*entity.DefectReport),
		returnRequests: make(map[string]*entity.ReturnRequest),
		deviceEvents:   make(map[string]*entity.DeviceEvent),
		notifications:  make(map[string]*entity.Notification),
	}
}

func (s *memoryStore) GetDevice(ctx context.Context, id string) (*entity.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, errors.NotFound("Device", nil)
	}
	return d.Clone(), nil
}

func (s *memoryStore) FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.MACAddress == mac {
			return d.Clone(), nil
		}
	}
	return nil, errors.NotFound("Device", nil)
}

func (s *memoryStore) FindDeviceBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.SerialNumber == serial {
			return d.Clone(), nil
		}
	}
	return nil, errors.NotFound("Device", nil)
}

func (s *memoryStore) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]*entity.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]*entity.Device, 0)
	for _, d := range s.devices {
		if filter.Match(d) {
			devices = append(devices, d.Clone())
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		return newerFirst(devices[i].RegisteredAt, devices[j].RegisteredAt, devices[i].ID, devices[j].ID)
	})
	return devices, nil
}

func (s *memoryStore) ListDeviceEvents(ctx context.Context, deviceID string) ([]*entity.DeviceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*entity.DeviceEvent, 0)
	for _, e := range s.deviceEvents {
		if e.DeviceID == deviceID {
			c := *e
			events = append(events, &c)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return newerFirst(events[i].At, events[j].At, events[i].ID, events[j].ID)
	})
	return events, nil
}

func (s *memoryStore) ListRecentDeviceEvents(ctx context.Context, filter repository.DeviceEventFilter) ([]*entity.DeviceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*entity.DeviceEvent, 0)
	for _, e := range s.deviceEvents {
		if filter.Match(e) {
			c := *e
			events = append(events, &c)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return newerFirst(events[i].At, events[j].At, events[i].ID, events[j].ID)
	})
	return filter.Truncate(events), nil
}

func (s *memoryStore) GetDistribution(ctx context.Context, id string) (*entity.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.distributions[id]
	if !ok {
		return nil, errors.NotFound("Distribution", nil)
	}
	return d.Clone(), nil
}

func (s *memoryStore) FindDistributionByBatchID(ctx context.Context, batchID string) (*entity.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.distributions {
		if d.BatchID == batchID {
			return d.Clone(), nil
		}
	}
	return nil, errors.NotFound("Distribution", nil)
}

func (s *memoryStore) ListDistributions(ctx context.Context, filter repository.DistributionFilter) ([]*entity.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Distribution, 0)
	for _, d := range s.distributions {
		if filter.Match(d) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetDefectReport(ctx context.Context, id string) (*entity.DefectReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.defectReports[id]
	if !ok {
		return nil, errors.NotFound("Defect report", nil)
	}
	return r.Clone(), nil
}

func (s *memoryStore) ListDefectReports(ctx context.Context, filter repository.DefectReportFilter) ([]*entity.DefectReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.DefectReport, 0)
	for _, r := range s.defectReports {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].ReportedAt, out[j].ReportedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetReturnRequest(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.returnRequests[id]
	if !ok {
		return nil, errors.NotFound("Return request", nil)
	}
	return r.Clone(), nil
}

func (s *memoryStore) ListReturnRequests(ctx context.Context, filter repository.ReturnRequestFilter) ([]*entity.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.ReturnRequest, 0)
	for _, r := range s.returnRequests {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetNotification(ctx context.Context, id string) (*entity.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	return n.Clone(), nil
}

func (s *memoryStore) ListNotifications(ctx context.Context, recipients []string, unreadBy string) ([]*entity.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		want[r] = true
	}

	out := make([]*entity.Notification, 0)
	for _, n := range s.notifications {
		if !want[n.Recipient] || (unreadBy != "" && n.ReadByUser(unreadBy)) {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) Apply(ctx context.Context, cs *repository.Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Internal("Changeset aborted", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(cs); err != nil {
		return err
	}

	for _, d := range cs.Devices {
		s.devices[d.ID] = d.Clone()
	}
	for _, d := range cs.Distributions {
		s.distributions[d.ID] = d.Clone()
	}
	for _, r := range cs.DefectReports {
		s.defectReports[r.ID] = r.Clone()
	}
	for _, r := range cs.ReturnRequests {
		s.returnRequests[r.ID] = r.Clone()
	}
	for _, e := range cs.DeviceEvents {
		c := *e
		s.deviceEvents[e.ID] = &c
	}
	for _, n := range cs.Notifications {
		s.notifications[n.ID] = n.Clone()
	}
	return nil
}

// checkUnique enforces MAC, serial and batch id uniqueness across the
// current state merged with the changeset.
func (s *memoryStore) checkUnique(cs *repository.Changeset) error {
	macs := make(map[string]string, len(s.devices))
	serials := make(map[string]string, len(s.devices))
	for id, d := range s.devices {
		macs[d.MACAddress] = id
		serials[d.SerialNumber] = id
	}
	for _, d := range cs.Devices {
		if prev, ok := s.devices[d.ID]; ok {
			delete(macs, prev.MACAddress)
			delete(serials, prev.SerialNumber)
		}
	}
	for _, d := range cs.Devices {
		if id, ok := macs[d.MACAddress]; ok && id != d.ID {
			return errors.Field("macAddress", "MAC address is already registered")
		}
		if id, ok := serials[d.SerialNumber]; ok && id != d.ID {
			return errors.Field("serialNumber", "serial number is already registered")
		}
		macs[d.MACAddress] = d.ID
		serials[d.SerialNumber] = d.ID
	}

	batches := make(map[string]string, len(s.distributions))
	for id, d := range s.distributions {
		batches[d.BatchID] = id
	}
	for _, d := range cs.Distributions {
		if id, ok := batches[d.BatchID]; ok && id != d.ID {
			return errors.Field("batchId", "batch id is already in use")
		}
		batches[d.BatchID] = d.ID
	}
	return nil
}

func newerFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA < idB
}
