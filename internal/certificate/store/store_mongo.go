package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleargate/internal/certificate/models"
	dErrors "cleargate/pkg/domain-errors"
)

const certCollection = "certificates"

// MongoCertificateStore persists certificates. certificateId is the _id, so
// the uniqueness constraint comes for free; a TTL index on retainUntil
// passively removes documents long past expiry.
type MongoCertificateStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoCertificateStore {
	return &MongoCertificateStore{coll: db.Collection(certCollection)}
}

// EnsureIndexes creates the student lookup index and the retention TTL
// index. Call once at startup.
func (s *MongoCertificateStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "issuedAt", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "retainUntil", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("create certificate indexes: %w", err)
	}
	return nil
}

func (s *MongoCertificateStore) Create(ctx context.Context, cert *models.Certificate) error {
	_, err := s.coll.InsertOne(ctx, cert)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "certificate id already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert certificate failed")
	}
	return nil
}

func (s *MongoCertificateStore) FindByCode(ctx context.Context, certificateID, securityHash string) (*models.Certificate, error) {
	var cert models.Certificate
	err := s.coll.FindOne(ctx, bson.M{
		"_id":          certificateID,
		"securityHash": securityHash,
	}).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found or invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find certificate failed")
	}
	return &cert, nil
}

func (s *MongoCertificateStore) FindActiveByStudent(ctx context.Context, studentID string) (*models.Certificate, error) {
	var cert models.Certificate
	err := s.coll.FindOne(ctx,
		bson.M{"studentId": studentID, "status": models.StatusActive},
		options.FindOne().SetSort(bson.D{{Key: "issuedAt", Value: -1}}),
	).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active certificate for student")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find active certificate failed")
	}
	return &cert, nil
}

func (s *MongoCertificateStore) RecordVerification(ctx context.Context, certificateID, securityHash string, now time.Time) (*models.Certificate, error) {
	var cert models.Certificate
	// $inc keeps concurrent verifications from losing counts; the filter on
	// both halves of the code keeps tampered hashes indistinguishable from
	// unknown IDs.
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": certificateID, "securityHash": securityHash},
		bson.M{
			"$inc": bson.M{"verificationCount": 1},
			"$set": bson.M{"lastVerified": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found or invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "record verification failed")
	}
	return &cert, nil
}

func (s *MongoCertificateStore) MarkExpired(ctx context.Context, certificateID string, retainUntil time.Time) error {
	// Zero matches means another verifier already flipped it; that is fine.
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": certificateID, "status": models.StatusActive},
		bson.M{"$set": bson.M{
			"status":      models.StatusExpired,
			"retainUntil": retainUntil,
		}},
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "mark certificate expired failed")
	}
	return nil
}
