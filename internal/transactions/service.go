package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/internal/fees"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/pagination"
)

// IngestInput is one event from the order pipeline's transaction feed. The
// amount fields arrive loosely typed upstream (numbers, strings, or missing)
// and are normalized at this boundary.
type IngestInput struct {
	RestaurantID   uuid.UUID
	OrderReference string
	PaymentMethod  string
	Subtotal       any
	Taxes          any
	Status         string
	CreatedAt      time.Time
}

// ServiceParams carries the dependencies for the transaction service.
type ServiceParams struct {
	Logger *logger.Logger
	Repo   Repository
	Now    func() time.Time
}

// Service ingests transaction feed events and serves the fee reports derived
// from them. Records are immutable once written.
type Service struct {
	logger *logger.Logger
	repo   Repository
	now    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("transaction repository is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{logger: params.Logger, repo: params.Repo, now: params.Now}, nil
}

// Ingest normalizes a feed event, derives its fee split, and persists the
// resulting immutable record.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (*models.Transaction, error) {
	ctx = s.logger.WithRestaurantID(ctx, input.RestaurantID.String())

	if input.RestaurantID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "restaurant id is required")
	}
	if input.OrderReference == "" {
		return nil, errors.New(errors.CodeValidation, "order reference is required")
	}

	status := enums.TransactionStatusPending
	if input.Status != "" {
		parsed, err := enums.ParseTransactionStatus(input.Status)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid transaction status").
				WithDetails(map[string]any{"status": input.Status})
		}
		status = parsed
	}

	subtotal := fees.ParseAmount(input.Subtotal)
	surcharge := fees.ParseAmount(input.Taxes)
	breakdown := fees.Derive(subtotal, surcharge)

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	transaction := &models.Transaction{
		RestaurantID:   input.RestaurantID,
		OrderReference: input.OrderReference,
		PaymentMethod:  input.PaymentMethod,
		GrossAmount:    breakdown.GrossAmount,
		Subtotal:       breakdown.RestaurantReceivable,
		PlatformFee:    breakdown.PlatformFee,
		GatewayFee:     breakdown.GatewayFee,
		GST:            breakdown.GST,
		NetEarnings:    breakdown.NetEarnings,
		Status:         status,
		CreatedAt:      createdAt,
	}
	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persisting transaction")
	}

	s.logger.Info(ctx, "transaction ingested")
	return transaction, nil
}

// Page is one page of a restaurant's transaction history.
type Page struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

// List returns a restaurant's transactions newest first, keyed by cursor.
func (s *Service) List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByRestaurant(ctx, restaurantID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing transactions")
	}

	page := &Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Transactions = rows
	return page, nil
}

// FeeReport returns the aggregate fee totals for one restaurant.
func (s *Service) FeeReport(ctx context.Context, restaurantID uuid.UUID) (*FeeTotals, error) {
	totals, err := s.repo.FeeTotals(ctx, restaurantID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "aggregating fee totals")
	}
	return totals, nil
}
