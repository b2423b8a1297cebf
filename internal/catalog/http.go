// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopie/internal/platform/middleware"
	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/pkg/pointer"
)

// # Definitions & Constructors

// Handler implements the catalog endpoints.
type Handler struct {
	service *Service
	roles   middleware.RoleSource
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, roles middleware.RoleSource) *Handler {
	return &Handler{service: service, roles: roles}
}

// Routes returns a [chi.Router] with the catalog endpoints.
//
// # Endpoints
//   - GET /products                : Browse (q, category, min, max, sort).
//   - GET /products/{productID}    : One product.
//   - GET /categories              : Categories (q narrows by name).
//   - GET /categories/{categoryID} : One category.
//   - POST/PUT/DELETE on both      : Administrators only.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/products", handler.browse)
	router.Get("/products/{productID}", handler.product)
	router.Get("/categories", handler.categories)
	router.Get("/categories/{categoryID}", handler.category)

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(handler.roles, sec.RoleAdmin))
		r.Post("/products", handler.createProduct)
		r.Put("/products/{productID}", handler.updateProduct)
		r.Delete("/products/{productID}", handler.deleteProduct)
		r.Post("/categories", handler.createCategory)
		r.Put("/categories/{categoryID}", handler.updateCategory)
		r.Delete("/categories/{categoryID}", handler.deleteCategory)
	})

	return router
}

// # Reads

/*
GET /api/v1/catalog/products

Request:
  - Query: q, category, min, max, sort (name | price_asc | price_desc)

Response:
  - 200: []Product
*/
func (handler *Handler) browse(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	products, err := handler.service.Browse(request.Context(), Query{
		Term:       query.Get("q"),
		CategoryID: int64(requestutil.QueryInt(request, "category", 0)),
		MinPrice:   queryFloat(query.Get("min")),
		MaxPrice:   queryFloat(query.Get("max")),
		Sort:       query.Get("sort"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, products)
}

// queryFloat parses an optional price bound; malformed values are ignored.
func queryFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return pointer.To(value)
}

func (handler *Handler) product(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	product, err := handler.service.Product(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, product)
}

/*
GET /api/v1/catalog/categories

Response:
  - 200: []Category (empty when the backend could not list them)
*/
func (handler *Handler) categories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.SearchCategories(request.Context(), request.URL.Query().Get("q"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

func (handler *Handler) category(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "categoryID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.Category(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, category)
}

// # Administration

func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var input ProductInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	product, err := handler.service.CreateProduct(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, product)
}

func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ProductInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	product, err := handler.service.UpdateProduct(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, product)
}

func (handler *Handler) deleteProduct(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteProduct(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input CategoryInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	category, err := handler.service.CreateCategory(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, category)
}

func (handler *Handler) updateCategory(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "categoryID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CategoryInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	category, err := handler.service.UpdateCategory(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, category)
}

func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "categoryID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteCategory(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
