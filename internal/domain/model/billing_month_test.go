package model_test

import (
	"testing"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingMonth(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)

	t.Run("parse and format", func(t *testing.T) {
		m, err := model.ParseBillingMonth("2025-03")
		require.NoError(t, err)
		assert.Equal(t, model.BillingMonth{Year: 2025, Month: time.March}, m)
		assert.Equal(t, "2025-03", m.String())
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		for _, in := range []string{"2025-3", "202503", "2025/03", "2025-13", ""} {
			_, err := model.ParseBillingMonth(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("previous month uses local calendar", func(t *testing.T) {
		// 2025-06-30 17:00 UTC is already July 1 in Taipei.
		now := time.Date(2025, 6, 30, 17, 0, 0, 0, time.UTC)
		assert.Equal(t, "2025-06", model.PreviousBillingMonth(now, loc).String())
		assert.Equal(t, "2025-05", model.PreviousBillingMonth(now, time.UTC).String())
	})

	t.Run("previous month across year end", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 3, 0, 0, 0, loc)
		assert.Equal(t, "2025-12", model.PreviousBillingMonth(now, loc).String())
	})

	t.Run("range is half open", func(t *testing.T) {
		start, end := model.BillingMonth{Year: 2024, Month: time.February}.Range(loc)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), start)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), end)
	})
}
