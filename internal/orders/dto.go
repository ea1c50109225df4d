package orders

import (
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateOrderItemInput is one requested line in a new order.
type CreateOrderItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	Items []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest carries a manual status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemDTO is the transport shape of one order line.
type OrderItemDTO struct {
	ID        int64                `json:"id"`
	ProductID int64                `json:"product_id"`
	Quantity  int                  `json:"quantity"`
	PriceThen decimal.Decimal      `json:"price_then"`
	Product   *products.ProductDTO `json:"product,omitempty"`
}

// StatusEntryDTO is one ledger row in the order's status history.
type StatusEntryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Status        enums.OrderStatus `json:"status"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Items         []OrderItemDTO    `json:"items,omitempty"`
	StatusHistory []StatusEntryDTO  `json:"status_history,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}

	dto := &OrderDTO{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for i := range o.Items {
		item := &o.Items[i]
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			PriceThen: item.PriceThen,
			Product:   products.FromModel(item.Product),
		})
	}
	for i := range o.Statuses {
		entry := &o.Statuses[i]
		dto.StatusHistory = append(dto.StatusHistory, StatusEntryDTO{
			Status:    entry.Status,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
