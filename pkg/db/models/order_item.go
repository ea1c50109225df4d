package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of each line within an order. PriceThen is
// fixed at creation and never recomputed, so historical orders stay immutable
// when catalog prices change.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID int64           `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	PriceThen decimal.Decimal `gorm:"column:price_then;type:numeric(10,2);not null" json:"price_then"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
