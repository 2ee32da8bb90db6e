package usecase_test

import (
	"context"
	"testing"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOrderNumberGenerator_Next(t *testing.T) {
	ctx := context.Background()
	loc := mustTaipei(t)

	t.Run("starts each day at 0001 and increments", func(t *testing.T) {
		store := newMemoryStore()
		gen := usecase.NewOrderNumberGenerator(store, store, loc, zap.NewNop())
		at := time.Date(2025, 5, 1, 9, 0, 0, 0, loc)

		first, err := gen.Next(ctx, at)
		require.NoError(t, err)
		second, err := gen.Next(ctx, at.Add(time.Hour))
		require.NoError(t, err)
		nextDay, err := gen.Next(ctx, at.AddDate(0, 0, 1))
		require.NoError(t, err)

		assert.Equal(t, "202505010001", first)
		assert.Equal(t, "202505010002", second)
		assert.Equal(t, "202505020001", nextDay)
		assert.Equal(t, []string{first, second, nextDay}, store.orderNumbers)
	})

	t.Run("counts days in the configured zone", func(t *testing.T) {
		store := newMemoryStore()
		gen := usecase.NewOrderNumberGenerator(store, store, loc, zap.NewNop())

		// 17:00 UTC is 01:00 the next day in Taipei.
		number, err := gen.Next(ctx, time.Date(2025, 5, 1, 17, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "202505020001", number)
	})

	t.Run("refuses past the daily ceiling", func(t *testing.T) {
		store := newMemoryStore()
		store.orderNumbers = []string{"202505019998", "202505019999"}
		gen := usecase.NewOrderNumberGenerator(store, store, loc, zap.NewNop())

		_, err := gen.Next(ctx, time.Date(2025, 5, 1, 23, 0, 0, 0, loc))
		assert.ErrorIs(t, err, domainErrors.ErrOrderSequenceExhausted)
		assert.Len(t, store.orderNumbers, 2)

		number, err := gen.Next(ctx, time.Date(2025, 5, 2, 0, 0, 0, 0, loc))
		require.NoError(t, err)
		assert.Equal(t, "202505020001", number)
	})
}

func TestNextOrderNumber(t *testing.T) {
	tests := []struct {
		name    string
		latest  string
		want    string
		wantErr error
	}{
		{name: "first of day", latest: "", want: "202505010001"},
		{name: "increment", latest: "202505010041", want: "202505010042"},
		{name: "carry", latest: "202505010999", want: "202505011000"},
		{name: "ceiling", latest: "202505019999", wantErr: domainErrors.ErrOrderSequenceExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usecase.NextOrderNumber("20250501", tt.latest)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects a foreign number", func(t *testing.T) {
		_, err := usecase.NextOrderNumber("20250501", "202504300001")
		assert.Error(t, err)
	})
}

func mustTaipei(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return loc
}
