package controllers

import (
	"net/http"

	"github.com/Kunwar-bir-singh/Online-Assessment/api/responses"
	"github.com/Kunwar-bir-singh/Online-Assessment/api/validators"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
)

// ProductsList serves the catalog, optionally filtered by ?category=.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		category, err := validators.ParseCategoryQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ProductsGet serves a single catalog entry.
func ProductsGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
