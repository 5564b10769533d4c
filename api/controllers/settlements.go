package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjnair/dineflow-backend/api/responses"
	"github.com/arjnair/dineflow-backend/api/validators"
	"github.com/arjnair/dineflow-backend/internal/fees"
	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	pkgerrors "github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// SettlementsService is the ledger surface the settlement endpoints need.
type SettlementsService interface {
	SetDefaultAmount(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.Settlement, error)
	AddPayment(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error)
	GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error)
	GetPeriod(ctx context.Context, restaurantID uuid.UUID, periodKey string) (*models.SettlementPeriod, error)
	ListSummaries(ctx context.Context) ([]settlement.Summary, error)
	Totals(ctx context.Context) (*settlement.PeriodTotals, error)
}

// Amounts arrive from the hub UI as numbers or strings; both are accepted
// and normalized before validation.
type amountRequest struct {
	Amount any `json:"amount" validate:"required"`
}

// SettlementList returns the per-restaurant dashboard summaries.
func SettlementList(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		summaries, err := svc.ListSummaries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

// SettlementTotals returns the aggregate due/paid/pending amounts.
func SettlementTotals(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		totals, err := svc.Totals(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

// SettlementDetail returns one restaurant's full settlement document.
func SettlementDetail(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByRestaurant(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// SettlementPeriodDetail returns one period of a restaurant's settlement.
func SettlementPeriodDetail(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period, err := svc.GetPeriod(r.Context(), restaurantID, chi.URLParam(r, "periodKey"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, period)
	}
}

// SettlementSetDefaultAmount configures a restaurant's monthly default.
func SettlementSetDefaultAmount(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req amountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetDefaultAmount(r.Context(), restaurantID, fees.ParseAmount(req.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// SettlementAddPayment records a payment against the current period.
func SettlementAddPayment(svc SettlementsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req amountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period, err := svc.AddPayment(r.Context(), restaurantID, fees.ParseAmount(req.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, period)
	}
}
