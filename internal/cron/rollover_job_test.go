package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

var rolloverNow = time.Date(2026, time.February, 1, 2, 0, 0, 0, time.UTC)

func TestRolloverJob_opensPendingPeriod(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "0")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	period := helper.onlyPeriod(t)
	if !period.TotalAmountDue.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("unexpected due: %s", period.TotalAmountDue)
	}
	if period.Status != enums.PeriodStatusPending {
		t.Fatalf("unexpected status: %s", period.Status)
	}
	if period.SettledDate != nil {
		t.Fatal("pending period must not carry a settled date")
	}
	if period.PeriodKey != "February 2026" {
		t.Fatalf("unexpected period key: %s", period.PeriodKey)
	}
}

func TestRolloverJob_creditFullyCoversPeriod(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "1200")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	period := helper.onlyPeriod(t)
	if !period.TotalAmountDue.IsZero() {
		t.Fatalf("expected zero due, got %s", period.TotalAmountDue)
	}
	if period.Status != enums.PeriodStatusPaid {
		t.Fatalf("expected paid at birth, got %s", period.Status)
	}
	if period.SettledDate == nil {
		t.Fatal("expected settled date on a credit-covered period")
	}
	if !period.CarryOverCredit.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("expected full credit recorded as carryover, got %s", period.CarryOverCredit)
	}

	record := helper.repo.settlements[restaurantID]
	if !record.CurrentOverpayment.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected residual credit 200, got %s", record.CurrentOverpayment)
	}
}

func TestRolloverJob_partialCreditReducesDue(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "300")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	period := helper.onlyPeriod(t)
	if !period.TotalAmountDue.Equal(decimal.RequireFromString("700")) {
		t.Fatalf("expected due 700, got %s", period.TotalAmountDue)
	}
	record := helper.repo.settlements[restaurantID]
	if !record.CurrentOverpayment.IsZero() {
		t.Fatalf("expected credit fully consumed, got %s", record.CurrentOverpayment)
	}
}

func TestRolloverJob_skipsNonActiveRestaurants(t *testing.T) {
	helper := newRolloverTest(t)
	for _, status := range []enums.RestaurantStatus{
		enums.RestaurantStatusInactive,
		enums.RestaurantStatusSuspended,
		enums.RestaurantStatusOff,
	} {
		restaurantID := helper.addRestaurant(status)
		helper.addSettlement(restaurantID, "1000", "0")
	}

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.repo.periods) != 0 {
		t.Fatalf("expected no periods, got %d", len(helper.repo.periods))
	}
}

func TestRolloverJob_idempotentForExistingMonth(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "0")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(helper.repo.periods) != 1 {
		t.Fatalf("expected exactly one period, got %d", len(helper.repo.periods))
	}
}

func TestRolloverJob_skipsUnconfiguredRestaurant(t *testing.T) {
	helper := newRolloverTest(t)
	helper.addRestaurant(enums.RestaurantStatusActive)

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.repo.periods) != 0 {
		t.Fatalf("expected no periods without a settlement, got %d", len(helper.repo.periods))
	}
}

func TestRolloverJob_announcesOpenedPeriods(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "0")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.snapshots.calls) != 1 {
		t.Fatalf("expected one snapshot after opening, got %d", len(helper.snapshots.calls))
	}
	if got := helper.snapshots.calls[0].RestaurantID; got != restaurantID {
		t.Fatalf("snapshot carries wrong restaurant: %s", got)
	}

	// A month that is already open must not be re-announced.
	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(helper.snapshots.calls) != 1 {
		t.Fatalf("idempotent run must not publish, got %d", len(helper.snapshots.calls))
	}
}

func TestRolloverJob_publishFailureDoesNotFailRun(t *testing.T) {
	helper := newRolloverTest(t)
	restaurantID := helper.addRestaurant(enums.RestaurantStatusActive)
	helper.addSettlement(restaurantID, "1000", "0")
	helper.snapshots.err = fmt.Errorf("broker unavailable")

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("publish failure must not fail the run: %v", err)
	}
	if len(helper.repo.periods) != 1 {
		t.Fatalf("expected the period opened regardless, got %d", len(helper.repo.periods))
	}
}

type rolloverTestHelper struct {
	job       *rolloverJob
	repo      *fakeSettlementRepo
	lister    *fakeRestaurantLister
	snapshots *recordingSnapshots
}

func newRolloverTest(t *testing.T) *rolloverTestHelper {
	t.Helper()
	repo := newFakeSettlementRepo()
	lister := &fakeRestaurantLister{}
	snapshots := &recordingSnapshots{}
	jobIface, err := NewRolloverJob(RolloverJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          fakeTxRunner{},
		Settlements: repo,
		Restaurants: lister,
		Snapshots:   snapshots,
		Now:         func() time.Time { return rolloverNow },
	})
	if err != nil {
		t.Fatalf("NewRolloverJob: %v", err)
	}
	job, ok := jobIface.(*rolloverJob)
	if !ok {
		t.Fatalf("expected rolloverJob, got %T", jobIface)
	}
	return &rolloverTestHelper{job: job, repo: repo, lister: lister, snapshots: snapshots}
}

func (h *rolloverTestHelper) addRestaurant(status enums.RestaurantStatus) uuid.UUID {
	id := uuid.New()
	h.lister.restaurants = append(h.lister.restaurants, models.Restaurant{
		ID:     id,
		Name:   fmt.Sprintf("restaurant-%d", len(h.lister.restaurants)+1),
		Status: status,
	})
	return id
}

func (h *rolloverTestHelper) addSettlement(restaurantID uuid.UUID, defaultAmount, credit string) {
	start := rolloverNow.AddDate(0, -1, 0)
	h.repo.settlements[restaurantID] = &models.Settlement{
		ID:                 uuid.New(),
		RestaurantID:       restaurantID,
		DefaultAmount:      decimal.RequireFromString(defaultAmount),
		CycleStartDate:     &start,
		CurrentOverpayment: decimal.RequireFromString(credit),
	}
}

func (h *rolloverTestHelper) onlyPeriod(t *testing.T) *models.SettlementPeriod {
	t.Helper()
	if len(h.repo.periods) != 1 {
		t.Fatalf("expected exactly one period, got %d", len(h.repo.periods))
	}
	for _, period := range h.repo.periods {
		return period
	}
	return nil
}

type recordingSnapshots struct {
	calls []models.Settlement
	err   error
}

func (r *recordingSnapshots) PublishSettlement(ctx context.Context, record models.Settlement) error {
	r.calls = append(r.calls, record)
	return r.err
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRestaurantLister struct {
	restaurants []models.Restaurant
}

func (f *fakeRestaurantLister) List(ctx context.Context) ([]models.Restaurant, error) {
	return f.restaurants, nil
}

type fakeSettlementRepo struct {
	settlements map[uuid.UUID]*models.Settlement
	periods     map[uuid.UUID]*models.SettlementPeriod
}

func newFakeSettlementRepo() *fakeSettlementRepo {
	return &fakeSettlementRepo{
		settlements: map[uuid.UUID]*models.Settlement{},
		periods:     map[uuid.UUID]*models.SettlementPeriod{},
	}
}

func (f *fakeSettlementRepo) WithTx(tx *gorm.DB) settlement.Repository { return f }

func (f *fakeSettlementRepo) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error) {
	record, ok := f.settlements[restaurantID]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (f *fakeSettlementRepo) Create(ctx context.Context, record *models.Settlement) error {
	f.settlements[record.RestaurantID] = record
	return nil
}

func (f *fakeSettlementRepo) Update(ctx context.Context, record *models.Settlement) error {
	f.settlements[record.RestaurantID] = record
	return nil
}

func (f *fakeSettlementRepo) List(ctx context.Context) ([]models.Settlement, error) {
	var out []models.Settlement
	for _, record := range f.settlements {
		out = append(out, *record)
	}
	return out, nil
}

func (f *fakeSettlementRepo) FindPeriod(ctx context.Context, settlementID uuid.UUID, periodKey string) (*models.SettlementPeriod, error) {
	for _, period := range f.periods {
		if period.SettlementID == settlementID && period.PeriodKey == periodKey {
			return period, nil
		}
	}
	return nil, nil
}

func (f *fakeSettlementRepo) CreatePeriod(ctx context.Context, period *models.SettlementPeriod) error {
	for _, existing := range f.periods {
		if existing.SettlementID == period.SettlementID && existing.PeriodKey == period.PeriodKey {
			return fmt.Errorf("duplicate key value violates unique constraint %q", periodUniqueConstraint)
		}
	}
	if period.ID == uuid.Nil {
		period.ID = uuid.New()
	}
	f.periods[period.ID] = period
	return nil
}

func (f *fakeSettlementRepo) UpdatePeriod(ctx context.Context, period *models.SettlementPeriod) error {
	f.periods[period.ID] = period
	return nil
}

func (f *fakeSettlementRepo) ListPayments(ctx context.Context, periodID uuid.UUID) ([]models.PaymentEntry, error) {
	return nil, nil
}

func (f *fakeSettlementRepo) CreatePayment(ctx context.Context, entry *models.PaymentEntry) error {
	return nil
}
