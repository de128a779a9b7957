//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cleargate/internal/clearance/models"
	dErrors "cleargate/pkg/domain-errors"
	"cleargate/pkg/testutil/containers"
)

type MongoRecordStoreSuite struct {
	suite.Suite
	mc    *containers.MongoContainer
	store *MongoRecordStore
}

func (s *MongoRecordStoreSuite) SetupSuite() {
	s.mc = containers.NewMongoContainer(s.T())
	s.store = NewMongo(s.mc.Database("cleargate_test"))
	s.Require().NoError(s.store.EnsureIndexes(context.Background()))
}

func (s *MongoRecordStoreSuite) TearDownTest() {
	s.Require().NoError(s.mc.Drop(context.Background(), "cleargate_test"))
	s.Require().NoError(s.store.EnsureIndexes(context.Background()))
}

func TestMongoRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(MongoRecordStoreSuite))
}

func (s *MongoRecordStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := models.NewClearanceRecord("ETS0001/14", time.Now().UTC())

	s.Require().NoError(s.store.Create(ctx, rec))
	s.False(rec.ID.IsZero())

	s.Run("duplicate student conflicts", func() {
		dup := models.NewClearanceRecord("ETS0001/14", time.Now().UTC())
		err := s.store.Create(ctx, dup)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("round trip preserves sections and status", func() {
		found, err := s.store.FindByStudent(ctx, "ETS0001/14")
		s.Require().NoError(err)
		s.Equal("ETS0001/14", found.StudentID)
		s.Equal(models.OverallPending, found.Overall)
		s.Len(found.Sections, 6)
		s.Equal(int64(1), found.Version)
	})

	s.Run("unknown student is not found", func() {
		_, err := s.store.FindByStudent(ctx, "ETS9999/99")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MongoRecordStoreSuite) TestVersionedUpdate() {
	ctx := context.Background()
	now := time.Now().UTC()
	rec := models.NewClearanceRecord("ETS0002/14", now)
	s.Require().NoError(s.store.Create(ctx, rec))

	s.Run("update persists and bumps version", func() {
		rec.ApplySection(models.SectionLibrary, models.StatusCleared, "Librarian", "", "h1", now)
		s.Require().NoError(s.store.Update(ctx, rec))
		s.Equal(int64(2), rec.Version)

		found, err := s.store.FindByStudent(ctx, "ETS0002/14")
		s.Require().NoError(err)
		s.Equal(models.StatusCleared, found.Sections[models.SectionLibrary].Status)
		s.Equal(int64(2), found.Version)
	})

	s.Run("stale version conflicts", func() {
		stale := rec.Clone()
		stale.Version = 1
		stale.ApplySection(models.SectionFinance, models.StatusCleared, "Officer", "", "h2", now)
		err := s.store.Update(ctx, stale)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// Six writers race on the same record; the versioned replace must serialize
// them so no section decision is lost.
func (s *MongoRecordStoreSuite) TestConcurrentWritersLoseCleanly() {
	ctx := context.Background()
	now := time.Now().UTC()
	rec := models.NewClearanceRecord("ETS0003/14", now)
	s.Require().NoError(s.store.Create(ctx, rec))

	sections := models.Sections()
	done := make(chan error, len(sections))
	for _, section := range sections {
		go func(section models.Section) {
			for attempt := 0; attempt < 20; attempt++ {
				current, err := s.store.FindByStudent(ctx, "ETS0003/14")
				if err != nil {
					done <- err
					return
				}
				current.ApplySection(section, models.StatusCleared, "Officer", "", string(section), time.Now().UTC())
				err = s.store.Update(ctx, current)
				if err == nil {
					done <- nil
					return
				}
				if !dErrors.HasCode(err, dErrors.CodeConflict) {
					done <- err
					return
				}
			}
			done <- context.DeadlineExceeded
		}(section)
	}
	for range sections {
		s.Require().NoError(<-done)
	}

	final, err := s.store.FindByStudent(ctx, "ETS0003/14")
	s.Require().NoError(err)
	s.Equal(models.OverallApproved, final.Overall)
	for _, state := range final.Sections {
		s.Equal(models.StatusCleared, state.Status)
	}
}
