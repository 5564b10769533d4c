package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	pkgerrors "github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type testSettlementsService struct {
	setDefaultFn func(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.Settlement, error)
	addPaymentFn func(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error)
	getFn        func(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error)
	getPeriodFn  func(ctx context.Context, restaurantID uuid.UUID, periodKey string) (*models.SettlementPeriod, error)
	summariesFn  func(ctx context.Context) ([]settlement.Summary, error)
	totalsFn     func(ctx context.Context) (*settlement.PeriodTotals, error)
}

func (s *testSettlementsService) SetDefaultAmount(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.Settlement, error) {
	if s.setDefaultFn != nil {
		return s.setDefaultFn(ctx, restaurantID, amount)
	}
	return &models.Settlement{}, nil
}

func (s *testSettlementsService) AddPayment(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error) {
	if s.addPaymentFn != nil {
		return s.addPaymentFn(ctx, restaurantID, amount)
	}
	return &models.SettlementPeriod{}, nil
}

func (s *testSettlementsService) GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error) {
	if s.getFn != nil {
		return s.getFn(ctx, restaurantID)
	}
	return &models.Settlement{}, nil
}

func (s *testSettlementsService) GetPeriod(ctx context.Context, restaurantID uuid.UUID, periodKey string) (*models.SettlementPeriod, error) {
	if s.getPeriodFn != nil {
		return s.getPeriodFn(ctx, restaurantID, periodKey)
	}
	return &models.SettlementPeriod{}, nil
}

func (s *testSettlementsService) ListSummaries(ctx context.Context) ([]settlement.Summary, error) {
	if s.summariesFn != nil {
		return s.summariesFn(ctx)
	}
	return nil, nil
}

func (s *testSettlementsService) Totals(ctx context.Context) (*settlement.PeriodTotals, error) {
	if s.totalsFn != nil {
		return s.totalsFn(ctx)
	}
	return &settlement.PeriodTotals{}, nil
}

func TestSettlementAddPaymentSuccess(t *testing.T) {
	restaurantID := uuid.New()
	var got decimal.Decimal
	svc := &testSettlementsService{
		addPaymentFn: func(ctx context.Context, rid uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error) {
			if rid != restaurantID {
				t.Fatalf("unexpected restaurant %s", rid)
			}
			got = amount
			return &models.SettlementPeriod{TotalPaid: amount}, nil
		},
	}

	body := strings.NewReader(`{"amount":"500.25"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/settlements/"+restaurantID.String()+"/payments", body)
	req = addRouteParam(req, "restaurantId", restaurantID.String())

	resp := httptest.NewRecorder()
	SettlementAddPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !got.Equal(decimal.RequireFromString("500.25")) {
		t.Fatalf("unexpected amount %s", got)
	}
}

func TestSettlementAddPaymentNumericAmount(t *testing.T) {
	restaurantID := uuid.New()
	var got decimal.Decimal
	svc := &testSettlementsService{
		addPaymentFn: func(ctx context.Context, rid uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error) {
			got = amount
			return &models.SettlementPeriod{}, nil
		},
	}

	body := strings.NewReader(`{"amount":750}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/settlements/"+restaurantID.String()+"/payments", body)
	req = addRouteParam(req, "restaurantId", restaurantID.String())

	resp := httptest.NewRecorder()
	SettlementAddPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !got.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("unexpected amount %s", got)
	}
}

func TestSettlementAddPaymentInvalidRestaurantID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/settlements/nope/payments", strings.NewReader(`{"amount":"10"}`))
	req = addRouteParam(req, "restaurantId", "nope")

	resp := httptest.NewRecorder()
	SettlementAddPayment(&testSettlementsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSettlementAddPaymentClosedPeriod(t *testing.T) {
	restaurantID := uuid.New()
	svc := &testSettlementsService{
		addPaymentFn: func(ctx context.Context, rid uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "period already settled")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/settlements/"+restaurantID.String()+"/payments", strings.NewReader(`{"amount":"10"}`))
	req = addRouteParam(req, "restaurantId", restaurantID.String())

	resp := httptest.NewRecorder()
	SettlementAddPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Message != "period already settled" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestSettlementSetDefaultAmountSuccess(t *testing.T) {
	restaurantID := uuid.New()
	var got decimal.Decimal
	svc := &testSettlementsService{
		setDefaultFn: func(ctx context.Context, rid uuid.UUID, amount decimal.Decimal) (*models.Settlement, error) {
			got = amount
			return &models.Settlement{RestaurantID: rid, DefaultAmount: amount}, nil
		},
	}

	body := strings.NewReader(`{"amount":"1200"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/settlements/"+restaurantID.String()+"/default-amount", body)
	req = addRouteParam(req, "restaurantId", restaurantID.String())

	resp := httptest.NewRecorder()
	SettlementSetDefaultAmount(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !got.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected amount %s", got)
	}
}

func TestSettlementSetDefaultAmountRejectsMissingBody(t *testing.T) {
	restaurantID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/settlements/"+restaurantID.String()+"/default-amount", strings.NewReader(`{}`))
	req = addRouteParam(req, "restaurantId", restaurantID.String())

	resp := httptest.NewRecorder()
	SettlementSetDefaultAmount(&testSettlementsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSettlementPeriodDetailNotFound(t *testing.T) {
	restaurantID := uuid.New()
	svc := &testSettlementsService{
		getPeriodFn: func(ctx context.Context, rid uuid.UUID, periodKey string) (*models.SettlementPeriod, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "period not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settlements/"+restaurantID.String()+"/periods/January%202026", nil)
	req = addRouteParam(req, "restaurantId", restaurantID.String())
	chi.RouteContext(req.Context()).URLParams.Add("periodKey", "January 2026")

	resp := httptest.NewRecorder()
	SettlementPeriodDetail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSettlementListSuccess(t *testing.T) {
	svc := &testSettlementsService{
		summariesFn: func(ctx context.Context) ([]settlement.Summary, error) {
			return []settlement.Summary{
				{RestaurantName: "Ember & Vine"},
				{RestaurantName: "Taco Cartel"},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settlements", nil)
	resp := httptest.NewRecorder()
	SettlementList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []settlement.Summary `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 summaries got %d", len(envelope.Data))
	}
}

func TestSettlementListNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settlements", nil)
	resp := httptest.NewRecorder()
	SettlementList(nil, testLogger())(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
