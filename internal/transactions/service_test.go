package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/pagination"
)

var ingestNow = time.Date(2026, time.April, 2, 14, 30, 0, 0, time.UTC)

func newTransactionTest(t *testing.T) (*Service, *fakeTransactionRepo) {
	t.Helper()
	repo := newFakeTransactionRepo()
	service, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Repo:   repo,
		Now:    func() time.Time { return ingestNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service, repo
}

func TestIngest_derivesFeeSplit(t *testing.T) {
	service, repo := newTransactionTest(t)
	restaurantID := uuid.New()

	created, err := service.Ingest(context.Background(), IngestInput{
		RestaurantID:   restaurantID,
		OrderReference: "ORD-1042",
		PaymentMethod:  "upi",
		Subtotal:       "1000",
		Taxes:          "50",
		Status:         "paid",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if !created.GatewayFee.Equal(decimal.RequireFromString("23.6")) {
		t.Fatalf("unexpected gateway fee: %s", created.GatewayFee)
	}
	if !created.GST.Equal(decimal.RequireFromString("4.752")) {
		t.Fatalf("unexpected gst: %s", created.GST)
	}
	if !created.NetEarnings.Equal(decimal.RequireFromString("45.248")) {
		t.Fatalf("unexpected net earnings: %s", created.NetEarnings)
	}
	if !created.GrossAmount.Equal(decimal.RequireFromString("1050")) {
		t.Fatalf("unexpected gross: %s", created.GrossAmount)
	}
	if created.Status != enums.TransactionStatusPaid {
		t.Fatalf("unexpected status: %s", created.Status)
	}
	if !created.CreatedAt.Equal(ingestNow) {
		t.Fatalf("expected ingest time stamped, got %s", created.CreatedAt)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(repo.created))
	}
}

func TestIngest_garbledAmountsDefaultToZero(t *testing.T) {
	service, _ := newTransactionTest(t)

	created, err := service.Ingest(context.Background(), IngestInput{
		RestaurantID:   uuid.New(),
		OrderReference: "ORD-1043",
		Subtotal:       "not-a-number",
		Taxes:          nil,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !created.GrossAmount.IsZero() || !created.GatewayFee.IsZero() {
		t.Fatalf("expected zeroed amounts, got gross=%s gateway=%s", created.GrossAmount, created.GatewayFee)
	}
	if created.Status != enums.TransactionStatusPending {
		t.Fatalf("expected pending default, got %s", created.Status)
	}
}

func TestIngest_rejectsMissingFields(t *testing.T) {
	service, _ := newTransactionTest(t)

	_, err := service.Ingest(context.Background(), IngestInput{OrderReference: "ORD-1"})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error for missing restaurant, got %v", err)
	}

	_, err = service.Ingest(context.Background(), IngestInput{RestaurantID: uuid.New()})
	typed = errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error for missing reference, got %v", err)
	}

	_, err = service.Ingest(context.Background(), IngestInput{
		RestaurantID:   uuid.New(),
		OrderReference: "ORD-2",
		Status:         "chargeback",
	})
	typed = errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestList_paginatesWithCursor(t *testing.T) {
	service, repo := newTransactionTest(t)
	restaurantID := uuid.New()
	for i := 0; i < 3; i++ {
		repo.created = append(repo.created, models.Transaction{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			CreatedAt:    ingestNow.Add(time.Duration(i) * time.Minute),
		})
	}

	page, err := service.List(context.Background(), restaurantID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Transactions))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	next, err := service.List(context.Background(), restaurantID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("List second page: %v", err)
	}
	if len(next.Transactions) != 1 {
		t.Fatalf("expected 1 row, got %d", len(next.Transactions))
	}
	if next.NextCursor != "" {
		t.Fatalf("expected no further cursor, got %s", next.NextCursor)
	}
}

func TestList_rejectsMalformedCursor(t *testing.T) {
	service, _ := newTransactionTest(t)

	_, err := service.List(context.Background(), uuid.New(), pagination.Params{Cursor: "%%%"})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type fakeTransactionRepo struct {
	created []models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{}
}

func (f *fakeTransactionRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeTransactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	f.created = append(f.created, *transaction)
	return nil
}

func (f *fakeTransactionRepo) Find(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	for i := range f.created {
		if f.created[i].ID == id {
			return &f.created[i], nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error) {
	var matching []models.Transaction
	for _, transaction := range f.created {
		if transaction.RestaurantID != restaurantID {
			continue
		}
		matching = append(matching, transaction)
	}
	// Newest first, mirroring the ORDER BY in the real repository.
	for i := 0; i < len(matching); i++ {
		for j := i + 1; j < len(matching); j++ {
			if matching[j].CreatedAt.After(matching[i].CreatedAt) {
				matching[i], matching[j] = matching[j], matching[i]
			}
		}
	}
	var out []models.Transaction
	for _, transaction := range matching {
		if cursor != nil && !transaction.CreatedAt.Before(cursor.CreatedAt) {
			continue
		}
		out = append(out, transaction)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) FeeTotals(ctx context.Context, restaurantID uuid.UUID) (*FeeTotals, error) {
	totals := &FeeTotals{
		RestaurantID: restaurantID,
		GrossAmount:  decimal.Zero,
		Subtotal:     decimal.Zero,
		PlatformFee:  decimal.Zero,
		GatewayFee:   decimal.Zero,
		GST:          decimal.Zero,
		NetEarnings:  decimal.Zero,
	}
	for _, transaction := range f.created {
		if transaction.RestaurantID != restaurantID {
			continue
		}
		totals.TransactionCnt++
		totals.GrossAmount = totals.GrossAmount.Add(transaction.GrossAmount)
		totals.Subtotal = totals.Subtotal.Add(transaction.Subtotal)
		totals.PlatformFee = totals.PlatformFee.Add(transaction.PlatformFee)
		totals.GatewayFee = totals.GatewayFee.Add(transaction.GatewayFee)
		totals.GST = totals.GST.Add(transaction.GST)
		totals.NetEarnings = totals.NetEarnings.Add(transaction.NetEarnings)
	}
	return totals, nil
}
