package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
)

// Order is the aggregate root for a placed order. Rows are never deleted; the
// only mutation after creation is a status transition.
type Order struct {
	ID          int64              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      int64              `gorm:"column:user_id;not null;index" json:"user_id"`
	Status      enums.OrderStatus  `gorm:"column:status;not null;default:'pending'" json:"status"`
	TotalAmount decimal.Decimal    `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	Items       []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Statuses    []OrderStatusEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"statuses,omitempty"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
