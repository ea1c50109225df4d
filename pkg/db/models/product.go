package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
)

// Product represents a catalog listing. Read-only from the order flow.
type Product struct {
	ID          int64                 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string                `gorm:"column:name;not null" json:"name"`
	Description string                `gorm:"column:description;not null" json:"description"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Category    enums.ProductCategory `gorm:"column:category;not null" json:"category"`
	ImageURL    string                `gorm:"column:image_url;not null" json:"image_url"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
