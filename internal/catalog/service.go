// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/internal/session"
	"github.com/taibuivan/shopie/pkg/pointer"
	"github.com/taibuivan/shopie/pkg/slice"
	"github.com/taibuivan/shopie/pkg/textnorm"
)

const (
	pathProducts       = "/products"
	pathProductSearch  = "/products/search"
	pathProductsByCat  = "/products/category"
	pathCategories     = "/categories"
	pathCategorySearch = "/categories/search"
)

// Sort orders accepted by [Service.Browse].
const (
	SortName      = "name"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Requester sends calls with the session's credential.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	Current() session.Session
}

// Service implements catalog browsing and administration.
type Service struct {
	requester Requester
	logger    *slog.Logger
}

// NewService constructs a catalog [Service].
func NewService(requester Requester, logger *slog.Logger) *Service {
	return &Service{requester: requester, logger: logger}
}

// # Reads

// Products lists every product.
func (service *Service) Products(ctx context.Context) ([]Product, error) {
	return service.products(ctx, backend.Request{Method: http.MethodGet, Path: pathProducts})
}

// Product returns one product.
func (service *Service) Product(ctx context.Context, id int64) (Product, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   productPath(id),
	})
	if err != nil {
		return Product{}, err
	}
	return backend.Decode[Product](payload)
}

// Search lists products whose name matches term.
//
// The term is normalised first; an empty term lists everything.
func (service *Service) Search(ctx context.Context, term string) ([]Product, error) {
	term = textnorm.Query(term)
	if term == "" {
		return service.Products(ctx)
	}

	return service.products(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathProductSearch,
		Query:  url.Values{"nom": {term}},
	})
}

// ByCategory lists the products of one category.
func (service *Service) ByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return service.products(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathProductsByCat + "/" + strconv.FormatInt(categoryID, 10),
	})
}

func (service *Service) products(ctx context.Context, req backend.Request) ([]Product, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	products, err := backend.Decode[[]Product](payload)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// # Browsing

// Query describes a storefront search.
type Query struct {
	Term       string
	CategoryID int64
	MinPrice   *float64
	MaxPrice   *float64
	Sort       string
}

/*
Browse runs a storefront search.

Description: A term searches by name, a category alone lists that category,
neither lists everything. The category (when combined with a term) and the
price bounds are then applied locally, and the result is sorted by name
(French collation) unless a price order is requested.

Returns:
  - []Product: Filtered, sorted products
  - error: Failures of the underlying read
*/
func (service *Service) Browse(ctx context.Context, query Query) ([]Product, error) {
	term := textnorm.Query(query.Term)

	var (
		products []Product
		err      error
	)
	switch {
	case term != "":
		products, err = service.Search(ctx, term)
	case query.CategoryID > 0:
		products, err = service.ByCategory(ctx, query.CategoryID)
	default:
		products, err = service.Products(ctx)
	}
	if err != nil {
		return nil, err
	}

	if term != "" && query.CategoryID > 0 {
		products = slice.Filter(products, func(product Product) bool {
			return product.Category != nil && product.Category.ID == query.CategoryID
		})
	}

	if query.MinPrice != nil || query.MaxPrice != nil {
		low := pointer.Fallback(query.MinPrice, 0)
		products = slice.Filter(products, func(product Product) bool {
			if product.Price < low {
				return false
			}
			return query.MaxPrice == nil || product.Price <= *query.MaxPrice
		})
	}

	sortProducts(products, query.Sort)
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// sortProducts orders products in place.
func sortProducts(products []Product, order string) {
	switch order {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	default:
		// Collators keep internal buffers and are not safe for concurrent use.
		collator := collate.New(language.French, collate.Loose)
		sort.SliceStable(products, func(i, j int) bool {
			return collator.CompareString(products[i].Name, products[j].Name) < 0
		})
	}
}

// # Categories

// Categories lists the categories.
//
// Failures other than a missing or rejected credential are logged and yield
// an empty list, so product listings never block on it.
func (service *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := service.categories(ctx, backend.Request{Method: http.MethodGet, Path: pathCategories})
	if err == nil {
		return categories, nil
	}

	if apperr.IsAuth(err) || apperr.HasCode(err, apperr.CodeNotAuthenticated) {
		return nil, err
	}

	service.logger.WarnContext(ctx, "categories_unavailable", slog.String("reason", apperr.Reason(err)))
	return []Category{}, nil
}

// Category returns one category.
func (service *Service) Category(ctx context.Context, id int64) (Category, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   categoryPath(id),
	})
	if err != nil {
		return Category{}, err
	}
	return backend.Decode[Category](payload)
}

// SearchCategories lists categories whose name matches term.
func (service *Service) SearchCategories(ctx context.Context, term string) ([]Category, error) {
	term = textnorm.Query(term)
	if term == "" {
		return service.Categories(ctx)
	}

	return service.categories(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathCategorySearch,
		Query:  url.Values{"nom": {term}},
	})
}

func (service *Service) categories(ctx context.Context, req backend.Request) ([]Category, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	categories, err := backend.Decode[[]Category](payload)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

// # Administration

// CreateProduct adds a product. Administrators only.
func (service *Service) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	return service.saveProduct(ctx, http.MethodPost, pathProducts, input)
}

// UpdateProduct replaces a product. Administrators only.
func (service *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	return service.saveProduct(ctx, http.MethodPut, productPath(id), input)
}

// DeleteProduct removes a product. Administrators only.
func (service *Service) DeleteProduct(ctx context.Context, id int64) error {
	return service.adminDelete(ctx, productPath(id))
}

// CreateCategory adds a category. Administrators only.
func (service *Service) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	return service.saveCategory(ctx, http.MethodPost, pathCategories, input)
}

// UpdateCategory replaces a category. Administrators only.
func (service *Service) UpdateCategory(ctx context.Context, id int64, input CategoryInput) (Category, error) {
	return service.saveCategory(ctx, http.MethodPut, categoryPath(id), input)
}

// DeleteCategory removes a category. Administrators only.
func (service *Service) DeleteCategory(ctx context.Context, id int64) error {
	return service.adminDelete(ctx, categoryPath(id))
}

func (service *Service) saveProduct(ctx context.Context, method, path string, input ProductInput) (Product, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return Product{}, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if input.ImageURL != nil && strings.TrimSpace(*input.ImageURL) == "" {
		input.ImageURL = nil
	}

	err := (&validate.Validator{}).
		Required("nom", input.Name).
		MaxLen("nom", input.Name, 255).
		NonNegative("prix", input.Price).
		Custom("stock", input.Stock < 0, "must not be negative").
		Err()
	if err != nil {
		return Product{}, err
	}

	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{Method: method, Path: path, Body: input})
	if err != nil {
		return Product{}, err
	}

	service.logger.InfoContext(ctx, "product_saved", slog.String("method", method), slog.String("name", input.Name))
	return backend.Decode[Product](payload)
}

func (service *Service) saveCategory(ctx context.Context, method, path string, input CategoryInput) (Category, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return Category{}, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	err := (&validate.Validator{}).
		Required("nom", input.Name).
		MaxLen("nom", input.Name, 100).
		Err()
	if err != nil {
		return Category{}, err
	}

	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{Method: method, Path: path, Body: input})
	if err != nil {
		return Category{}, err
	}

	service.logger.InfoContext(ctx, "category_saved", slog.String("method", method), slog.String("name", input.Name))
	return backend.Decode[Category](payload)
}

func (service *Service) adminDelete(ctx context.Context, path string) error {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return err
	}

	if _, err := service.requester.AuthenticatedRequest(ctx, backend.Request{Method: http.MethodDelete, Path: path}); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "catalog_entry_deleted", slog.String("path", path))
	return nil
}

func productPath(id int64) string  { return pathProducts + "/" + strconv.FormatInt(id, 10) }
func categoryPath(id int64) string { return pathCategories + "/" + strconv.FormatInt(id, 10) }
