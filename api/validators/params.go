package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// ParsePathID reads a positive int64 path parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseCategoryQuery reads the optional ?category= filter.
func ParseCategoryQuery(r *http.Request) (*enums.ProductCategory, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("category"))
	if raw == "" {
		return nil, nil
	}
	category, err := enums.ParseProductCategory(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]any{"field": "category"})
	}
	return &category, nil
}
