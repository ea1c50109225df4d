package models

import (
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
)

// OrderStatusEntry is one row of the append-only status ledger. The order's
// current status always equals the most recent entry's status.
type OrderStatusEntry struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64             `gorm:"column:order_id;not null;index" json:"order_id"`
	Status    enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
