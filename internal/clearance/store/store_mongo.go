package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleargate/internal/clearance/models"
	dErrors "cleargate/pkg/domain-errors"
)

const recordCollection = "clearance_records"

// MongoRecordStore persists clearance records in MongoDB. Versioned
// ReplaceOne gives single-document compare-and-set without transactions.
type MongoRecordStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoRecordStore {
	return &MongoRecordStore{coll: db.Collection(recordCollection)}
}

// EnsureIndexes creates the unique studentId index. Call once at startup.
func (s *MongoRecordStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "studentId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create clearance indexes: %w", err)
	}
	return nil
}

func (s *MongoRecordStore) Create(ctx context.Context, rec *models.ClearanceRecord) error {
	rec.Version = 1
	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "clearance record already exists for student")
		}
		return storageErr(err, "insert clearance record")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}
	return nil
}

func (s *MongoRecordStore) FindByStudent(ctx context.Context, studentID string) (*models.ClearanceRecord, error) {
	var rec models.ClearanceRecord
	err := s.coll.FindOne(ctx, bson.M{"studentId": studentID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no clearance record for student")
		}
		return nil, storageErr(err, "find clearance record")
	}
	return &rec, nil
}

func (s *MongoRecordStore) Update(ctx context.Context, rec *models.ClearanceRecord) error {
	next := rec.Clone()
	next.Version = rec.Version + 1

	// The version in the filter is the compare half of the CAS; a concurrent
	// writer bumps it and this replace matches nothing.
	res, err := s.coll.ReplaceOne(ctx, bson.M{
		"studentId": rec.StudentID,
		"version":   rec.Version,
	}, next)
	if err != nil {
		return storageErr(err, "update clearance record")
	}
	if res.MatchedCount == 0 {
		return dErrors.New(dErrors.CodeConflict, "clearance record modified concurrently")
	}
	rec.Version = next.Version
	return nil
}

// storageErr classifies driver failures as retryable unavailability, keeping
// timeouts distinguishable for callers that back off.
func storageErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, op+" failed")
}
