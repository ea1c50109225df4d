package orders

import (
	"context"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateOrder inserts the order together with its line items.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// AppendStatus writes one row to the append-only status ledger.
func (r *Repository) AppendStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	entry := &models.OrderStatusEntry{
		OrderID: orderID,
		Status:  status,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindOrder loads the bare order row without associations.
func (r *Repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderWithDetails loads the order with items, product snapshots and the
// full status ledger.
func (r *Repository) FindOrderWithDetails(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Statuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the user's orders newest first, with items and ledger.
func (r *Repository) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Statuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateOrderStatusIfLive conditionally moves the order to the given status.
// The write is guarded so a terminal order is never resurrected, and the
// caller learns from the row count whether the transition happened.
func (r *Repository) UpdateOrderStatusIfLive(ctx context.Context, orderID int64, status enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, []enums.OrderStatus{
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
		}).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
