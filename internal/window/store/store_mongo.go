package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleargate/internal/window"
	dErrors "cleargate/pkg/domain-errors"
)

const settingsCollection = "window_settings"

// singletonID pins the settings to one well-known document.
const singletonID = "clearance_window"

// MongoSettingsStore persists the singleton settings document.
type MongoSettingsStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoSettingsStore {
	return &MongoSettingsStore{coll: db.Collection(settingsCollection)}
}

type settingsDoc struct {
	ID       string          `bson:"_id"`
	Settings window.Settings `bson:"settings"`
}

func (s *MongoSettingsStore) Get(ctx context.Context) (*window.Settings, error) {
	var doc settingsDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": singletonID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "window settings not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find window settings failed")
	}
	return &doc.Settings, nil
}

func (s *MongoSettingsStore) Put(ctx context.Context, settings *window.Settings) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": singletonID},
		settingsDoc{ID: singletonID, Settings: *settings},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "save window settings failed")
	}
	return nil
}
