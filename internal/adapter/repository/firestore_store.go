package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

const (
	devicesCollection        = "devices"
	distributionsCollection  = "distributions"
	defectReportsCollection  = "defect_reports"
	returnRequestsCollection = "return_requests"
	deviceEventsCollection   = "device_events"
	notificationsCollection  = "notifications"
)

// firestoreStore persists entities as documents keyed by id. Queries use a
// single equality filter and the rest is matched in memory, so no composite
// indexes are required.
type firestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) repository.Store {
	return &firestoreStore{client: client}
}

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func getDoc[T any](ctx context.Context, client *firestore.Client, collection, id, resource string) (*T, error) {
	if id == "" {
		return nil, errors.NotFound(resource, nil)
	}
	doc, err := client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.NotFound(resource, err)
		}
		return nil, errors.Internal("Failed to get "+resource, err)
	}

	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, errors.Internal("Failed to parse "+resource, err)
	}
	return &v, nil
}

func queryDocs[T any](ctx context.Context, q firestore.Query, resource string) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]*T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list "+resource, err)
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, errors.Internal("Failed to parse "+resource, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func firstDoc[T any](ctx context.Context, q firestore.Query, resource string) (*T, error) {
	items, err := queryDocs[T](ctx, q.Limit(1), resource)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.NotFound(resource, nil)
	}
	return items[0], nil
}

func (s *firestoreStore) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

func (s *firestoreStore) GetDevice(ctx context.Context, id string) (*entity.Device, error) {
	return getDoc[entity.Device](ctx, s.client, devicesCollection, id, "Device")
}

func (s *firestoreStore) FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error) {
	return firstDoc[entity.Device](ctx, s.col(devicesCollection).Where("macAddress", "==", mac), "Device")
}

func (s *firestoreStore) FindDeviceBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	return firstDoc[entity.Device](ctx, s.col(devicesCollection).Where("serialNumber", "==", serial), "Device")
}

func (s *firestoreStore) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]*entity.Device, error) {
	q := s.col(devicesCollection).Query
	switch {
	case filter.Holder != "":
		q = q.Where("currentHolder", "==", filter.Holder)
	case filter.Status != "":
		q = q.Where("status", "==", string(filter.Status))
	case filter.Location != "":
		q = q.Where("currentLocation", "==", string(filter.Location))
	}

	all, err := queryDocs[entity.Device](ctx, q, "devices")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if filter.Match(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].RegisteredAt, out[j].RegisteredAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *firestoreStore) ListDeviceEvents(ctx context.Context, deviceID string) ([]*entity.DeviceEvent, error) {
	events, err := queryDocs[entity.DeviceEvent](ctx, s.col(deviceEventsCollection).Where("deviceId", "==", deviceID), "device events")
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		return newerFirst(events[i].At, events[j].At, events[i].ID, events[j].ID)
	})
	return events, nil
}

func (s *firestoreStore) ListRecentDeviceEvents(ctx context.Context, filter repository.DeviceEventFilter) ([]*entity.DeviceEvent, error) {
	q := s.col(deviceEventsCollection).OrderBy("at", firestore.Desc)
	unfiltered := filter.Holder == "" && filter.PerformedBy == ""
	if unfiltered && filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	all, err := queryDocs[entity.DeviceEvent](ctx, q, "device events")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].At, out[j].At, out[i].ID, out[j].ID)
	})
	return filter.Truncate(out), nil
}

func (s *firestoreStore) GetDistribution(ctx context.Context, id string) (*entity.Distribution, error) {
	return getDoc[entity.Distribution](ctx, s.client, distributionsCollection, id, "Distribution")
}

func (s *firestoreStore) FindDistributionByBatchID(ctx context.Context, batchID string) (*entity.Distribution, error) {
	return firstDoc[entity.Distribution](ctx, s.col(distributionsCollection).Where("batchId", "==", batchID), "Distribution")
}

func (s *firestoreStore) ListDistributions(ctx context.Context, filter repository.DistributionFilter) ([]*entity.Distribution, error) {
	q := s.col(distributionsCollection).Query
	if len(filter.Statuses) > 0 {
		q = q.Where("status", "in", repository.StatusStrings(filter.Statuses))
	}

	all, err := queryDocs[entity.Distribution](ctx, q, "distributions")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if filter.Match(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *firestoreStore) GetDefectReport(ctx context.Context, id string) (*entity.DefectReport, error) {
	return getDoc[entity.DefectReport](ctx, s.client, defectReportsCollection, id, "Defect report")
}

func (s *firestoreStore) ListDefectReports(ctx context.Context, filter repository.DefectReportFilter) ([]*entity.DefectReport, error) {
	q := s.col(defectReportsCollection).Query
	switch {
	case filter.DeviceID != "":
		q = q.Where("deviceId", "==", filter.DeviceID)
	case len(filter.Statuses) > 0:
		q = q.Where("status", "in", repository.StatusStrings(filter.Statuses))
	}

	all, err := queryDocs[entity.DefectReport](ctx, q, "defect reports")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].ReportedAt, out[j].ReportedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *firestoreStore) GetReturnRequest(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return getDoc[entity.ReturnRequest](ctx, s.client, returnRequestsCollection, id, "Return request")
}

func (s *firestoreStore) ListReturnRequests(ctx context.Context, filter repository.ReturnRequestFilter) ([]*entity.ReturnRequest, error) {
	q := s.col(returnRequestsCollection).Query
	switch {
	case filter.DeviceID != "":
		q = q.Where("deviceId", "==", filter.DeviceID)
	case filter.CurrentApprover != "":
		q = q.Where("currentApprover", "==", string(filter.CurrentApprover))
	case len(filter.Statuses) > 0:
		q = q.Where("status", "in", repository.StatusStrings(filter.Statuses))
	}

	all, err := queryDocs[entity.ReturnRequest](ctx, q, "return requests")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *firestoreStore) GetNotification(ctx context.Context, id string) (*entity.Notification, error) {
	return getDoc[entity.Notification](ctx, s.client, notificationsCollection, id, "Notification")
}

func (s *firestoreStore) ListNotifications(ctx context.Context, recipients []string, unreadBy string) ([]*entity.Notification, error) {
	if len(recipients) == 0 {
		return []*entity.Notification{}, nil
	}

	q := s.col(notificationsCollection).Where("recipient", "in", recipients)
	all, err := queryDocs[entity.Notification](ctx, q, "notifications")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, n := range all {
		if unreadBy == "" || !n.ReadByUser(unreadBy) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// Apply writes the changeset in one transaction. Uniqueness of MAC, serial and
// batch id is re-checked inside the transaction before any write.
func (s *firestoreStore) Apply(ctx context.Context, cs *repository.Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, d := range cs.Devices {
			if err := s.checkUniqueTx(tx, devicesCollection, "macAddress", d.MACAddress, d.ID, "macAddress", "MAC address is already registered"); err != nil {
				return err
			}
			if err := s.checkUniqueTx(tx, devicesCollection, "serialNumber", d.SerialNumber, d.ID, "serialNumber", "serial number is already registered"); err != nil {
				return err
			}
		}
		for _, d := range cs.Distributions {
			if err := s.checkUniqueTx(tx, distributionsCollection, "batchId", d.BatchID, d.ID, "batchId", "batch id is already in use"); err != nil {
				return err
			}
		}

		for _, d := range cs.Devices {
			if err := tx.Set(s.col(devicesCollection).Doc(d.ID), d); err != nil {
				return err
			}
		}
		for _, d := range cs.Distributions {
			if err := tx.Set(s.col(distributionsCollection).Doc(d.ID), d); err != nil {
				return err
			}
		}
		for _, r := range cs.DefectReports {
			if err := tx.Set(s.col(defectReportsCollection).Doc(r.ID), r); err != nil {
				return err
			}
		}
		for _, r := range cs.ReturnRequests {
			if err := tx.Set(s.col(returnRequestsCollection).Doc(r.ID), r); err != nil {
				return err
			}
		}
		for _, e := range cs.DeviceEvents {
			if err := tx.Set(s.col(deviceEventsCollection).Doc(e.ID), e); err != nil {
				return err
			}
		}
		for _, n := range cs.Notifications {
			if err := tx.Set(s.col(notificationsCollection).Doc(n.ID), n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.Internal("Failed to apply changes", err)
	}
	return nil
}

func (s *firestoreStore) checkUniqueTx(tx *firestore.Transaction, collection, path, value, id, field, reason string) error {
	docs, err := tx.Documents(s.col(collection).Where(path, "==", value).Limit(2)).GetAll()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.Ref.ID != id {
			return errors.Field(field, reason)
		}
	}
	return nil
}
