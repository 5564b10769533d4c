package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/api/responses"
	"github.com/arjnair/dineflow-backend/api/validators"
	"github.com/arjnair/dineflow-backend/internal/transactions"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	pkgerrors "github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/pagination"
)

// TransactionsService is the surface the transaction endpoints need.
type TransactionsService interface {
	Ingest(ctx context.Context, input transactions.IngestInput) (*models.Transaction, error)
	List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*transactions.Page, error)
	FeeReport(ctx context.Context, restaurantID uuid.UUID) (*transactions.FeeTotals, error)
}

// Feed events carry loosely typed amounts; they are normalized downstream.
type ingestTransactionRequest struct {
	RestaurantID   string    `json:"restaurantId" validate:"required,uuid4"`
	OrderReference string    `json:"orderReference" validate:"required"`
	PaymentMethod  string    `json:"paymentMethod"`
	Subtotal       any       `json:"subtotal"`
	Taxes          any       `json:"taxes"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TransactionIngest accepts one transaction feed event.
func TransactionIngest(svc TransactionsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		var req ingestTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurantID, err := validators.ParsePathUUID(req.RestaurantID, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Ingest(r.Context(), transactions.IngestInput{
			RestaurantID:   restaurantID,
			OrderReference: req.OrderReference,
			PaymentMethod:  req.PaymentMethod,
			Subtotal:       req.Subtotal,
			Taxes:          req.Taxes,
			Status:         req.Status,
			CreatedAt:      req.CreatedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// TransactionList pages through one restaurant's transactions, newest first.
func TransactionList(svc TransactionsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), restaurantID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// TransactionFeeReport returns the aggregate fee totals for one restaurant.
func TransactionFeeReport(svc TransactionsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(r.URL.Query().Get("restaurant_id"), "restaurant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.FeeReport(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
