package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handler "github.com/Mattie1391/sportify-backend/internal/adapter/handler/http"
)

func TestPlansHandler_GetPlans(t *testing.T) {
	t.Run("lists plans", func(t *testing.T) {
		plans := new(MockPlanLister)
		e := newEcho()
		e.GET("/api/v1/plans", handler.NewPlansHandler(plans, zap.NewNop()).GetPlans)
		plans.On("ListPlans", mock.Anything).Return([]*model.Plan{
			{Name: "Wellness", Pricing: decimal.NewFromInt(299), MaxResolution: 720},
			{Name: "Sport+", Pricing: decimal.NewFromInt(999), MaxResolution: 1080, Livestream: true},
		}, nil)

		rec := serve(e, http.MethodGet, "/api/v1/plans", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Plans []model.Plan `json:"plans"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Plans, 2)
		assert.Equal(t, "Sport+", body.Plans[1].Name)
		assert.True(t, body.Plans[1].Livestream)
	})

	t.Run("storage failure", func(t *testing.T) {
		plans := new(MockPlanLister)
		e := newEcho()
		e.GET("/api/v1/plans", handler.NewPlansHandler(plans, zap.NewNop()).GetPlans)
		plans.On("ListPlans", mock.Anything).Return(nil, errors.New("db down"))

		rec := serve(e, http.MethodGet, "/api/v1/plans", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
