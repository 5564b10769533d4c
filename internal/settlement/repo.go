package settlement

import (
	"context"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles settlement persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error)
	Create(ctx context.Context, settlement *models.Settlement) error
	Update(ctx context.Context, settlement *models.Settlement) error
	List(ctx context.Context) ([]models.Settlement, error)
	FindPeriod(ctx context.Context, settlementID uuid.UUID, periodKey string) (*models.SettlementPeriod, error)
	CreatePeriod(ctx context.Context, period *models.SettlementPeriod) error
	UpdatePeriod(ctx context.Context, period *models.SettlementPeriod) error
	ListPayments(ctx context.Context, periodID uuid.UUID) ([]models.PaymentEntry, error)
	CreatePayment(ctx context.Context, entry *models.PaymentEntry) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Periods").
		Preload("Periods.Payments").
		Where("restaurant_id = ?", restaurantID).
		First(&settlement).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) Create(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}

func (r *repository) Update(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).
		Omit("Periods").
		Save(settlement).Error
}

func (r *repository) List(ctx context.Context) ([]models.Settlement, error) {
	var settlements []models.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Periods").
		Preload("Periods.Payments").
		Order("restaurant_name ASC").
		Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

func (r *repository) FindPeriod(ctx context.Context, settlementID uuid.UUID, periodKey string) (*models.SettlementPeriod, error) {
	var period models.SettlementPeriod
	if err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("settlement_id = ? AND period_key = ?", settlementID, periodKey).
		First(&period).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *repository) CreatePeriod(ctx context.Context, period *models.SettlementPeriod) error {
	return r.db.WithContext(ctx).Omit("Payments").Create(period).Error
}

func (r *repository) UpdatePeriod(ctx context.Context, period *models.SettlementPeriod) error {
	return r.db.WithContext(ctx).Omit("Payments").Save(period).Error
}

func (r *repository) ListPayments(ctx context.Context, periodID uuid.UUID) ([]models.PaymentEntry, error) {
	var entries []models.PaymentEntry
	if err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("recorded_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CreatePayment(ctx context.Context, entry *models.PaymentEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
