package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	scheduled := Settings{
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 3),
		IsActive:  true,
	}

	t.Run("emergency close wins over everything", func(t *testing.T) {
		s := scheduled
		s.EmergencyClosed = true
		s.ManuallyOpened = true

		d := Evaluate(s, now)
		assert.False(t, d.Open)
		assert.Equal(t, KindEmergency, d.Kind)
	})

	t.Run("manual open wins over schedule", func(t *testing.T) {
		s := Settings{
			StartDate:      now.AddDate(0, 0, 5),
			EndDate:        now.AddDate(0, 0, 10),
			IsActive:       true,
			ManuallyOpened: true,
		}
		d := Evaluate(s, now)
		assert.True(t, d.Open)
		assert.Equal(t, KindManual, d.Kind)
	})

	t.Run("open within scheduled window with time remaining", func(t *testing.T) {
		d := Evaluate(scheduled, now)
		assert.True(t, d.Open)
		assert.Equal(t, KindScheduled, d.Kind)
		assert.Equal(t, 72*time.Hour, d.ClosesIn)
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		assert.True(t, Evaluate(scheduled, scheduled.StartDate).Open)
		assert.True(t, Evaluate(scheduled, scheduled.EndDate).Open)
	})

	t.Run("closed before opening with time until start", func(t *testing.T) {
		s := Settings{
			StartDate: now.Add(36 * time.Hour),
			EndDate:   now.AddDate(0, 0, 10),
			IsActive:  true,
		}
		d := Evaluate(s, now)
		assert.False(t, d.Open)
		assert.Equal(t, KindBeforeOpening, d.Kind)
		assert.Equal(t, 36*time.Hour, d.OpensIn)
	})

	t.Run("closed after window ends", func(t *testing.T) {
		s := scheduled
		s.EndDate = now.Add(-time.Hour)
		d := Evaluate(s, now)
		assert.False(t, d.Open)
		assert.Equal(t, KindAfterClosing, d.Kind)
	})

	t.Run("inactive schedule is closed regardless of dates", func(t *testing.T) {
		s := scheduled
		s.IsActive = false
		d := Evaluate(s, now)
		assert.False(t, d.Open)
		assert.Equal(t, KindInactive, d.Kind)
	})
}

func TestDefaultSettings(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := DefaultSettings(now)

	assert.True(t, s.IsActive)
	assert.Equal(t, now.AddDate(0, 0, 1), s.StartDate)
	assert.Equal(t, s.StartDate.AddDate(0, 0, 5), s.EndDate)

	// The default window is not open yet at creation time.
	d := Evaluate(s, now)
	assert.False(t, d.Open)
	assert.Equal(t, KindBeforeOpening, d.Kind)
}
