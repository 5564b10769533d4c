package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/db"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

const periodUniqueConstraint = "ux_settlement_periods_settlement_period"

// RolloverJobParams configures the monthly period rollover. Snapshots is
// optional; when set, every freshly opened period is announced downstream.
type RolloverJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Settlements settlement.Repository
	Restaurants restaurantLister
	Snapshots   settlement.SnapshotPublisher
	Now         func() time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type restaurantLister interface {
	List(ctx context.Context) ([]models.Restaurant, error)
}

// NewRolloverJob constructs the job that opens each active restaurant's
// settlement period for the current calendar month.
func NewRolloverJob(params RolloverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Settlements == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if params.Restaurants == nil {
		return nil, fmt.Errorf("restaurant lister required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &rolloverJob{
		logg:        params.Logger,
		db:          params.DB,
		settlements: params.Settlements,
		restaurants: params.Restaurants,
		snapshots:   params.Snapshots,
		now:         params.Now,
	}, nil
}

type rolloverJob struct {
	logg        *logger.Logger
	db          txRunner
	settlements settlement.Repository
	restaurants restaurantLister
	snapshots   settlement.SnapshotPublisher
	now         func() time.Time
}

func (j *rolloverJob) Name() string { return "period-rollover" }

func (j *rolloverJob) Run(ctx context.Context) error {
	restaurants, err := j.restaurants.List(ctx)
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}

	periodKey := settlement.PeriodKeyFor(j.now())
	ctx = j.logg.WithPeriodKey(ctx, periodKey)

	var errs []error
	opened := 0
	for _, restaurant := range restaurants {
		created, err := j.rollRestaurant(ctx, restaurant, periodKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("restaurant %s: %w", restaurant.ID, err))
			continue
		}
		if created {
			opened++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"opened": opened, "scanned": len(restaurants)})
	j.logg.Info(logCtx, "rollover run complete")
	return multierr.Combine(errs...)
}

// rollRestaurant opens the current month's period for one restaurant. Billing
// is paused while the restaurant is not active, and a month that already has
// a period is left untouched, so redundant runs are harmless.
func (j *rolloverJob) rollRestaurant(ctx context.Context, restaurant models.Restaurant, periodKey string) (bool, error) {
	ctx = j.logg.WithRestaurantID(ctx, restaurant.ID.String())

	if restaurant.Status != enums.RestaurantStatusActive {
		return false, nil
	}

	created := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.settlements.WithTx(tx)

		record, err := repo.FindByRestaurant(ctx, restaurant.ID)
		if err != nil {
			return fmt.Errorf("load settlement: %w", err)
		}
		if record == nil {
			// No default amount configured yet, nothing to bill.
			return nil
		}

		existing, err := repo.FindPeriod(ctx, record.ID, periodKey)
		if err != nil {
			return fmt.Errorf("load current period: %w", err)
		}
		if existing != nil {
			return nil
		}

		now := j.now().UTC()
		credit := record.CurrentOverpayment
		consumed := decimal.Min(credit, record.DefaultAmount)
		due := record.DefaultAmount.Sub(consumed)

		period := &models.SettlementPeriod{
			SettlementID:          record.ID,
			PeriodKey:             periodKey,
			TotalAmountDue:        due,
			DefaultAmountForMonth: record.DefaultAmount,
			CarryOverCredit:       credit,
			OverpaymentAmount:     decimal.Zero,
			TotalPaid:             decimal.Zero,
			Status:                settlement.StatusFor(decimal.Zero, due),
			CycleStartDate:        now,
		}
		if period.Status == enums.PeriodStatusPaid {
			settled := now
			period.SettledDate = &settled
		}

		if err := repo.CreatePeriod(ctx, period); err != nil {
			if db.IsUniqueViolation(err, periodUniqueConstraint) {
				// A concurrent run already opened this month.
				return nil
			}
			return fmt.Errorf("create period: %w", err)
		}

		record.CurrentOverpayment = credit.Sub(consumed)
		record.Version++
		if err := repo.Update(ctx, record); err != nil {
			return fmt.Errorf("consume carryover credit: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		j.logg.Info(ctx, "settlement period opened")
		j.publishSnapshot(ctx, restaurant.ID)
	}
	return created, nil
}

// publishSnapshot announces the settlement after a period opens. Publish
// failures are logged only; the period is already committed and a later
// snapshot carries the same state.
func (j *rolloverJob) publishSnapshot(ctx context.Context, restaurantID uuid.UUID) {
	if j.snapshots == nil {
		return
	}
	record, err := j.settlements.FindByRestaurant(ctx, restaurantID)
	if err != nil || record == nil {
		j.logg.Error(ctx, "snapshot publish skipped: reloading settlement", err)
		return
	}
	if err := j.snapshots.PublishSettlement(ctx, *record); err != nil {
		j.logg.Error(ctx, "snapshot publish failed", err)
	}
}
