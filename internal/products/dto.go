package products

import (
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog transport shape.
type ProductDTO struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Price       decimal.Decimal       `json:"price"`
	Category    enums.ProductCategory `json:"category"`
	ImageURL    string                `json:"image_url,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
