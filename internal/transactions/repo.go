package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/pagination"
)

// FeeTotals is the aggregate fee report for one restaurant.
type FeeTotals struct {
	RestaurantID    uuid.UUID       `json:"restaurant_id"`
	TransactionCnt  int64           `json:"transaction_count"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	GatewayFee      decimal.Decimal `json:"gateway_fee"`
	GST             decimal.Decimal `json:"gst"`
	NetEarnings     decimal.Decimal `json:"net_earnings"`
}

// Repository handles transaction persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	Find(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error)
	FeeTotals(ctx context.Context, restaurantID uuid.UUID) (*FeeTotals, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repository) FeeTotals(ctx context.Context, restaurantID uuid.UUID) (*FeeTotals, error) {
	type row struct {
		TransactionCnt int64
		GrossAmount    decimal.Decimal
		Subtotal       decimal.Decimal
		PlatformFee    decimal.Decimal
		GatewayFee     decimal.Decimal
		GST            decimal.Decimal
		NetEarnings    decimal.Decimal
	}

	var result row
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select(`
			COUNT(*) AS transaction_cnt,
			COALESCE(SUM(gross_amount), 0) AS gross_amount,
			COALESCE(SUM(subtotal), 0) AS subtotal,
			COALESCE(SUM(platform_fee), 0) AS platform_fee,
			COALESCE(SUM(gateway_fee), 0) AS gateway_fee,
			COALESCE(SUM(gst), 0) AS gst,
			COALESCE(SUM(net_earnings), 0) AS net_earnings`).
		Where("restaurant_id = ?", restaurantID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &FeeTotals{
		RestaurantID:   restaurantID,
		TransactionCnt: result.TransactionCnt,
		GrossAmount:    result.GrossAmount,
		Subtotal:       result.Subtotal,
		PlatformFee:    result.PlatformFee,
		GatewayFee:     result.GatewayFee,
		GST:            result.GST,
		NetEarnings:    result.NetEarnings,
	}, nil
}
