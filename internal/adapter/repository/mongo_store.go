package repository

import (
	"context"
	stderrors "errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

// mongoStore keeps one collection per entity. Apply runs in a multi-document
// transaction, so the server must be a replica set.
type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) repository.Store {
	return &mongoStore{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	indexes := map[string][]mongo.IndexModel{
		devicesCollection: {
			{Keys: bson.D{{Key: "macAddress", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "serialNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "currentHolder", Value: 1}}},
		},
		distributionsCollection: {
			{Keys: bson.D{{Key: "batchId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		defectReportsCollection: {
			{Keys: bson.D{{Key: "deviceId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		returnRequestsCollection: {
			{Keys: bson.D{{Key: "deviceId", Value: 1}}},
			{Keys: bson.D{{Key: "currentApprover", Value: 1}, {Key: "status", Value: 1}}},
		},
		deviceEventsCollection: {
			{Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "at", Value: -1}}},
			{Keys: bson.D{{Key: "at", Value: -1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, resource string) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, filter).Decode(&v); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFound(resource, err)
		}
		return nil, errors.Internal("Failed to get "+resource, err)
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sortField string, resource string) ([]*T, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Internal("Failed to list "+resource, err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	for cursor.Next(ctx) {
		var v T
		if err := cursor.Decode(&v); err != nil {
			return nil, errors.Internal("Failed to parse "+resource, err)
		}
		out = append(out, &v)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Internal("Failed to list "+resource, err)
	}
	return out, nil
}

func (s *mongoStore) GetDevice(ctx context.Context, id string) (*entity.Device, error) {
	return findOne[entity.Device](ctx, s.db.Collection(devicesCollection), bson.M{"_id": id}, "Device")
}

func (s *mongoStore) FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error) {
	return findOne[entity.Device](ctx, s.db.Collection(devicesCollection), bson.M{"macAddress": mac}, "Device")
}

func (s *mongoStore) FindDeviceBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	return findOne[entity.Device](ctx, s.db.Collection(devicesCollection), bson.M{"serialNumber": serial}, "Device")
}

func (s *mongoStore) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]*entity.Device, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.Location != "" {
		q["currentLocation"] = filter.Location
	}
	if filter.Holder != "" {
		q["currentHolder"] = filter.Holder
	}
	return findAll[entity.Device](ctx, s.db.Collection(devicesCollection), q, "registeredAt", "devices")
}

func (s *mongoStore) ListDeviceEvents(ctx context.Context, deviceID string) ([]*entity.DeviceEvent, error) {
	return findAll[entity.DeviceEvent](ctx, s.db.Collection(deviceEventsCollection), bson.M{"deviceId": deviceID}, "at", "device events")
}

func (s *mongoStore) ListRecentDeviceEvents(ctx context.Context, filter repository.DeviceEventFilter) ([]*entity.DeviceEvent, error) {
	q := bson.M{}
	var or bson.A
	if filter.Holder != "" {
		or = append(or, bson.M{"fromHolder": filter.Holder}, bson.M{"toHolder": filter.Holder})
	}
	if filter.PerformedBy != "" {
		or = append(or, bson.M{"performedBy": filter.PerformedBy})
	}
	if len(or) > 0 {
		q["$or"] = or
	}

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := s.db.Collection(deviceEventsCollection).Find(ctx, q, opts)
	if err != nil {
		return nil, errors.Internal("Failed to list device events", err)
	}
	defer cursor.Close(ctx)

	out := make([]*entity.DeviceEvent, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Internal("Failed to parse device events", err)
	}
	return out, nil
}

func (s *mongoStore) GetDistribution(ctx context.Context, id string) (*entity.Distribution, error) {
	return findOne[entity.Distribution](ctx, s.db.Collection(distributionsCollection), bson.M{"_id": id}, "Distribution")
}

func (s *mongoStore) FindDistributionByBatchID(ctx context.Context, batchID string) (*entity.Distribution, error) {
	return findOne[entity.Distribution](ctx, s.db.Collection(distributionsCollection), bson.M{"batchId": batchID}, "Distribution")
}

func (s *mongoStore) ListDistributions(ctx context.Context, filter repository.DistributionFilter) ([]*entity.Distribution, error) {
	q := bson.M{}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": repository.StatusStrings(filter.Statuses)}
	}
	if filter.Holder != "" {
		q["$or"] = bson.A{
			bson.M{"fromDistributor": filter.Holder},
			bson.M{"toDistributor": filter.Holder},
		}
	}
	return findAll[entity.Distribution](ctx, s.db.Collection(distributionsCollection), q, "createdAt", "distributions")
}

func (s *mongoStore) GetDefectReport(ctx context.Context, id string) (*entity.DefectReport, error) {
	return findOne[entity.DefectReport](ctx, s.db.Collection(defectReportsCollection), bson.M{"_id": id}, "Defect report")
}

func (s *mongoStore) ListDefectReports(ctx context.Context, filter repository.DefectReportFilter) ([]*entity.DefectReport, error) {
	q := bson.M{}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": repository.StatusStrings(filter.Statuses)}
	}
	if filter.DeviceID != "" {
		q["deviceId"] = filter.DeviceID
	}
	if filter.Holder != "" {
		q["holder"] = filter.Holder
	}
	return findAll[entity.DefectReport](ctx, s.db.Collection(defectReportsCollection), q, "reportedAt", "defect reports")
}

func (s *mongoStore) GetReturnRequest(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return findOne[entity.ReturnRequest](ctx, s.db.Collection(returnRequestsCollection), bson.M{"_id": id}, "Return request")
}

func (s *mongoStore) ListReturnRequests(ctx context.Context, filter repository.ReturnRequestFilter) ([]*entity.ReturnRequest, error) {
	q := bson.M{}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": repository.StatusStrings(filter.Statuses)}
	}
	if filter.DeviceID != "" {
		q["deviceId"] = filter.DeviceID
	}
	if filter.Holder != "" {
		q["holder"] = filter.Holder
	}
	if filter.CurrentApprover != "" {
		q["currentApprover"] = filter.CurrentApprover
	}
	return findAll[entity.ReturnRequest](ctx, s.db.Collection(returnRequestsCollection), q, "createdAt", "return requests")
}

func (s *mongoStore) GetNotification(ctx context.Context, id string) (*entity.Notification, error) {
	return findOne[entity.Notification](ctx, s.db.Collection(notificationsCollection), bson.M{"_id": id}, "Notification")
}

func (s *mongoStore) ListNotifications(ctx context.Context, recipients []string, unreadBy string) ([]*entity.Notification, error) {
	if len(recipients) == 0 {
		return []*entity.Notification{}, nil
	}
	q := bson.M{"recipient": bson.M{"$in": recipients}}
	if unreadBy != "" {
		q["readBy"] = bson.M{"$ne": unreadBy}
	}
	return findAll[entity.Notification](ctx, s.db.Collection(notificationsCollection), q, "createdAt", "notifications")
}

func (s *mongoStore) Apply(ctx context.Context, cs *repository.Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return errors.Internal("Failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		upsert := options.Replace().SetUpsert(true)
		write := func(collection, id string, doc interface{}) error {
			_, err := s.db.Collection(collection).ReplaceOne(sc, bson.M{"_id": id}, doc, upsert)
			return err
		}

		for _, d := range cs.Devices {
			if err := write(devicesCollection, d.ID, d); err != nil {
				return nil, err
			}
		}
		for _, d := range cs.Distributions {
			if err := write(distributionsCollection, d.ID, d); err != nil {
				return nil, err
			}
		}
		for _, r := range cs.DefectReports {
			if err := write(defectReportsCollection, r.ID, r); err != nil {
				return nil, err
			}
		}
		for _, r := range cs.ReturnRequests {
			if err := write(returnRequestsCollection, r.ID, r); err != nil {
				return nil, err
			}
		}
		for _, e := range cs.DeviceEvents {
			if err := write(deviceEventsCollection, e.ID, e); err != nil {
				return nil, err
			}
		}
		for _, n := range cs.Notifications {
			if err := write(notificationsCollection, n.ID, n); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return mapMongoWriteError(err)
	}
	return nil
}

// mapMongoWriteError turns unique index violations into validation errors on
// the offending field.
func mapMongoWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return errors.Internal("Failed to apply changes", err)
	}

	msg := err.Error()
	var we mongo.WriteException
	if stderrors.As(err, &we) && len(we.WriteErrors) > 0 {
		msg = we.WriteErrors[0].Message
	}

	switch {
	case strings.Contains(msg, "macAddress"):
		return errors.Field("macAddress", "MAC address is already registered")
	case strings.Contains(msg, "serialNumber"):
		return errors.Field("serialNumber", "serial number is already registered")
	case strings.Contains(msg, "batchId"):
		return errors.Field("batchId", "batch id is already in use")
	}
	return errors.Validation("Duplicate identifier", nil)
}
