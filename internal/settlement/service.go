package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RestaurantReader exposes the restaurant lookups the ledger needs.
type RestaurantReader interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

// SnapshotPublisher pushes the post-mutation ledger state to downstream
// consumers. Publication is best effort and never fails the mutation.
type SnapshotPublisher interface {
	PublishSettlement(ctx context.Context, record models.Settlement) error
}

// ServiceParams carries the dependencies for the settlement service.
// Snapshots is optional; without it ledger mutations are not broadcast.
type ServiceParams struct {
	Logger      *logger.Logger
	DB          TxRunner
	Repo        Repository
	Restaurants RestaurantReader
	Snapshots   SnapshotPublisher
	Now         func() time.Time
}

// Service owns the settlement ledger: default amounts, payment recording,
// and the aggregate views built on top of them.
type Service struct {
	logger      *logger.Logger
	db          TxRunner
	repo        Repository
	restaurants RestaurantReader
	snapshots   SnapshotPublisher
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("settlement repository is required")
	}
	if params.Restaurants == nil {
		return nil, fmt.Errorf("restaurant reader is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		logger:      params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		restaurants: params.Restaurants,
		snapshots:   params.Snapshots,
		now:         params.Now,
	}, nil
}

// pushSnapshot reloads the settlement with its periods and hands it to the
// snapshot publisher. Failures are logged, never surfaced: the transaction
// already committed and the projection converges on the next event.
func (s *Service) pushSnapshot(ctx context.Context, restaurantID uuid.UUID) {
	if s.snapshots == nil {
		return
	}
	record, err := s.repo.FindByRestaurant(ctx, restaurantID)
	if err != nil || record == nil {
		s.logger.Error(ctx, "snapshot publish skipped: reloading settlement", err)
		return
	}
	if err := s.snapshots.PublishSettlement(ctx, *record); err != nil {
		s.logger.Error(ctx, "snapshot publish failed", err)
	}
}

// StatusFor derives a period status from its paid and due amounts. Paid wins
// whenever the ledger covers the due amount, including the due = 0 case.
func StatusFor(totalPaid, totalAmountDue decimal.Decimal) enums.PeriodStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(totalAmountDue):
		return enums.PeriodStatusPaid
	case totalPaid.IsPositive():
		return enums.PeriodStatusProcessing
	default:
		return enums.PeriodStatusPending
	}
}

// SetDefaultAmount configures the monthly amount a restaurant owes. The first
// call creates the settlement record and fixes its cycle start date. The
// current period is rewritten to the new amount only while its ledger is
// still empty; once a payment lands, the change applies from the next period.
func (s *Service) SetDefaultAmount(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.Settlement, error) {
	ctx = s.logger.WithRestaurantID(ctx, restaurantID.String())

	if !amount.IsPositive() {
		s.logger.Warn(ctx, "default amount rejected: must be positive")
		return nil, errors.New(errors.CodeValidation, "default amount must be greater than zero")
	}

	var result *models.Settlement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		settlement, err := repo.FindByRestaurant(ctx, restaurantID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading settlement")
		}

		if settlement == nil {
			restaurant, err := s.restaurants.Find(ctx, restaurantID)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "loading restaurant")
			}
			if restaurant == nil {
				return errors.New(errors.CodeNotFound, "restaurant not found")
			}

			start := s.now().UTC()
			settlement = &models.Settlement{
				RestaurantID:       restaurantID,
				RestaurantName:     restaurant.Name,
				DefaultAmount:      amount,
				CycleStartDate:     &start,
				CurrentOverpayment: decimal.Zero,
			}
			if err := repo.Create(ctx, settlement); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "creating settlement")
			}
			result = settlement
			return nil
		}

		settlement.DefaultAmount = amount
		settlement.Version++
		if err := repo.Update(ctx, settlement); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating settlement")
		}

		periodKey := PeriodKeyFor(s.now())
		period, err := repo.FindPeriod(ctx, settlement.ID, periodKey)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading current period")
		}
		// A period born paid from carryover credit also has an empty ledger;
		// paid is final, so it keeps its satisfied obligation.
		if period != nil && period.Status != enums.PeriodStatusPaid &&
			len(period.Payments) == 0 && period.TotalPaid.IsZero() {
			period.TotalAmountDue = amount
			period.DefaultAmountForMonth = amount
			period.Status = StatusFor(period.TotalPaid, period.TotalAmountDue)
			if err := repo.UpdatePeriod(ctx, period); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "rewriting current period")
			}
		}

		result = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pushSnapshot(ctx, restaurantID)
	s.logger.Info(ctx, "default settlement amount updated")
	return result, nil
}

// AddPayment records a payment against the restaurant's current period. The
// period's totals and status are recomputed from the full ledger, overpayment
// is banked into the settlement's global credit, and settledDate is stamped
// the first time the period closes. The whole operation runs in one
// transaction so the credit can never drift from the period that produced it.
func (s *Service) AddPayment(ctx context.Context, restaurantID uuid.UUID, amount decimal.Decimal) (*models.SettlementPeriod, error) {
	ctx = s.logger.WithRestaurantID(ctx, restaurantID.String())

	if !amount.IsPositive() {
		s.logger.Warn(ctx, "payment rejected: amount must be positive")
		return nil, errors.New(errors.CodeValidation, "payment amount must be greater than zero")
	}

	periodKey := PeriodKeyFor(s.now())
	ctx = s.logger.WithPeriodKey(ctx, periodKey)

	var result *models.SettlementPeriod
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		settlement, err := repo.FindByRestaurant(ctx, restaurantID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading settlement")
		}
		if settlement == nil {
			s.logger.Warn(ctx, "payment declined: settlement not configured")
			return errors.New(errors.CodeNotFound, "settlement not found")
		}

		period, err := repo.FindPeriod(ctx, settlement.ID, periodKey)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading current period")
		}
		if period == nil {
			s.logger.Warn(ctx, "payment declined: no open settlement period")
			return errors.New(errors.CodeStateConflict, "no settlement period is open for the current month")
		}
		if period.Status == enums.PeriodStatusPaid {
			s.logger.Warn(ctx, "payment declined: period already paid")
			return errors.New(errors.CodeStateConflict, "settlement period is already paid")
		}

		entry := &models.PaymentEntry{
			ID:         uuid.New(),
			PeriodID:   period.ID,
			Amount:     amount,
			RecordedAt: s.now().UTC(),
		}
		if err := repo.CreatePayment(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "recording payment")
		}

		entries, err := repo.ListPayments(ctx, period.ID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading payment ledger")
		}

		totalPaid := decimal.Zero
		for _, e := range entries {
			totalPaid = totalPaid.Add(e.Amount)
		}

		period.TotalPaid = totalPaid
		period.Status = StatusFor(totalPaid, period.TotalAmountDue)

		overpayment := totalPaid.Sub(period.TotalAmountDue)
		if overpayment.IsNegative() {
			overpayment = decimal.Zero
		}
		creditDelta := overpayment.Sub(period.OverpaymentAmount)
		period.OverpaymentAmount = overpayment

		if period.Status == enums.PeriodStatusPaid && period.SettledDate == nil {
			settled := s.now().UTC()
			period.SettledDate = &settled
		}

		if err := repo.UpdatePeriod(ctx, period); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating period")
		}

		settlement.CurrentOverpayment = settlement.CurrentOverpayment.Add(creditDelta)
		settlement.Version++
		if err := repo.Update(ctx, settlement); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating settlement credit")
		}

		period.Payments = entries
		result = period
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pushSnapshot(ctx, restaurantID)
	s.logger.Info(ctx, "payment recorded")
	return result, nil
}

// GetByRestaurant loads a settlement with its periods and payment ledgers.
func (s *Service) GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading settlement")
	}
	if settlement == nil {
		return nil, errors.New(errors.CodeNotFound, "settlement not found")
	}
	return settlement, nil
}

// GetPeriod loads one period of a restaurant's settlement by its month label.
func (s *Service) GetPeriod(ctx context.Context, restaurantID uuid.UUID, periodKey string) (*models.SettlementPeriod, error) {
	if _, err := ParsePeriodKey(periodKey); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid period key")
	}

	settlement, err := s.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.FindPeriod(ctx, settlement.ID, periodKey)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading period")
	}
	if period == nil {
		return nil, errors.New(errors.CodeNotFound, "settlement period not found")
	}
	return period, nil
}

// Summary is the dashboard view of one restaurant's current billing state.
type Summary struct {
	RestaurantID       uuid.UUID          `json:"restaurant_id"`
	RestaurantName     string             `json:"restaurant_name"`
	PeriodKey          string             `json:"period_key"`
	Status             enums.PeriodStatus `json:"status"`
	TotalAmountDue     decimal.Decimal    `json:"total_amount_due"`
	TotalPaid          decimal.Decimal    `json:"total_paid"`
	Outstanding        decimal.Decimal    `json:"outstanding"`
	OverpaymentCredit  decimal.Decimal    `json:"overpayment_credit"`
	CarryOverCredit    decimal.Decimal    `json:"carry_over_credit"`
	SettledDate        *time.Time         `json:"settled_date,omitempty"`
	HasCurrentPeriod   bool               `json:"has_current_period"`
	DefaultAmount      decimal.Decimal    `json:"default_amount"`
	PeriodCount        int                `json:"period_count"`
	PaymentEntriesOpen int                `json:"payment_entries_open"`
}

// ListSummaries derives the per-restaurant dashboard rows for the current
// month. Pure read, no state is mutated.
func (s *Service) ListSummaries(ctx context.Context) ([]Summary, error) {
	settlements, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing settlements")
	}

	periodKey := PeriodKeyFor(s.now())
	summaries := make([]Summary, 0, len(settlements))
	for i := range settlements {
		summaries = append(summaries, summarize(&settlements[i], periodKey))
	}
	return summaries, nil
}

func summarize(settlement *models.Settlement, periodKey string) Summary {
	summary := Summary{
		RestaurantID:      settlement.RestaurantID,
		RestaurantName:    settlement.RestaurantName,
		PeriodKey:         periodKey,
		Status:            enums.PeriodStatusPending,
		TotalAmountDue:    decimal.Zero,
		TotalPaid:         decimal.Zero,
		Outstanding:       decimal.Zero,
		OverpaymentCredit: settlement.CurrentOverpayment,
		CarryOverCredit:   decimal.Zero,
		DefaultAmount:     settlement.DefaultAmount,
		PeriodCount:       len(settlement.Periods),
	}

	for i := range settlement.Periods {
		period := &settlement.Periods[i]
		if period.PeriodKey != periodKey {
			continue
		}
		summary.HasCurrentPeriod = true
		summary.Status = period.Status
		summary.TotalAmountDue = period.TotalAmountDue
		summary.TotalPaid = period.TotalPaid
		summary.CarryOverCredit = period.CarryOverCredit
		summary.SettledDate = period.SettledDate
		summary.PaymentEntriesOpen = len(period.Payments)

		outstanding := period.TotalAmountDue.Sub(period.TotalPaid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		summary.Outstanding = outstanding
		break
	}
	return summary
}

// PeriodTotals aggregates ledger amounts across every known period.
type PeriodTotals struct {
	TotalDue     decimal.Decimal `json:"total_due"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
}

// Totals sums due, paid, and pending amounts across all settlements. Pure
// derivation used by the admin dashboard header.
func (s *Service) Totals(ctx context.Context) (*PeriodTotals, error) {
	settlements, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing settlements")
	}

	totals := &PeriodTotals{
		TotalDue:     decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}
	for i := range settlements {
		for j := range settlements[i].Periods {
			period := &settlements[i].Periods[j]
			totals.TotalDue = totals.TotalDue.Add(period.TotalAmountDue)
			totals.TotalPaid = totals.TotalPaid.Add(period.TotalPaid)

			pending := period.TotalAmountDue.Sub(period.TotalPaid)
			if pending.IsPositive() {
				totals.TotalPending = totals.TotalPending.Add(pending)
			}
		}
	}
	return totals, nil
}
