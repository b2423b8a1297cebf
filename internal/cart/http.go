// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/validate"
)

// # Definitions & Constructors

// Handler exposes the cart to the UI shell.
type Handler struct {
	synchronizer *Synchronizer
}

// NewHandler constructs a new [Handler].
func NewHandler(synchronizer *Synchronizer) *Handler {
	return &Handler{synchronizer: synchronizer}
}

// Routes returns a [chi.Router] with the cart endpoints.
//
// Every mutation answers with the committed cart view, so the shell never has
// to merge quantities itself.
//
// # Endpoints
//   - GET    /                      : Committed cart (no backend call).
//   - POST   /refresh               : Reload from the backend.
//   - DELETE /                      : Clear the cart.
//   - POST   /items                 : Add a product.
//   - PUT    /items/{lineID}        : Set a line's quantity.
//   - DELETE /items/{lineID}        : Remove a line.
//   - GET    /products/{productID}  : Whether a product is in the cart.
//   - DELETE /products/{productID}  : Remove a product's line.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.show)
	router.Delete("/", handler.clear)
	router.Post("/refresh", handler.refresh)

	router.Post("/items", handler.add)
	router.Put("/items/{lineID}", handler.update)
	router.Delete("/items/{lineID}", handler.remove)

	router.Get("/products/{productID}", handler.product)
	router.Delete("/products/{productID}", handler.removeProduct)

	return router
}

// # Views & Payloads

type view struct {
	State
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type productView struct {
	InCart   bool  `json:"inCart"`
	Quantity int   `json:"quantity"`
	Line     *Line `json:"line,omitempty"`
}

type addInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateInput struct {
	Quantity int `json:"quantity"`
}

func (handler *Handler) view() view {
	snapshot := handler.synchronizer.Snapshot()
	return view{State: snapshot, Count: len(snapshot.Items), Total: snapshot.Total()}
}

// respondAfter writes the error, or the committed cart when err is nil.
func (handler *Handler) respondAfter(writer http.ResponseWriter, request *http.Request, err error) {
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.view())
}

// # Handlers

/*
GET /api/v1/cart

Response:
  - 200: view (Items, Loading, LastSyncedAt, Count, Total)
*/
func (handler *Handler) show(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.view())
}

/*
POST /api/v1/cart/refresh

Response:
  - 200: view
  - 401: NOT_AUTHENTICATED / AUTH_ERROR
  - 502: NETWORK_ERROR / SERVER_ERROR
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	handler.respondAfter(writer, request, handler.synchronizer.Refresh(request.Context()))
}

/*
POST /api/v1/cart/items

Request:
  - Body: addInput (ProductID, Quantity)

Response:
  - 200: view
  - 400: VALIDATION_ERROR (local precondition or backend message, e.g. out of stock)
*/
func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	var input addInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.synchronizer.AddToCart(request.Context(), input.ProductID, input.Quantity)
	handler.respondAfter(writer, request, err)
}

/*
PUT /api/v1/cart/items/{lineID}

Request:
  - Body: updateInput (Quantity; zero or less removes the line)
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	lineID, err := requestutil.ID(request, "lineID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	handler.respondAfter(writer, request, handler.synchronizer.UpdateCartItem(request.Context(), lineID, input.Quantity))
}

/*
DELETE /api/v1/cart/items/{lineID}
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	lineID, err := requestutil.ID(request, "lineID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.respondAfter(writer, request, handler.synchronizer.RemoveFromCart(request.Context(), lineID))
}

/*
DELETE /api/v1/cart/products/{productID}

Response:
  - 404: NOT_FOUND when the product has no line
*/
func (handler *Handler) removeProduct(writer http.ResponseWriter, request *http.Request) {
	productID, err := requestutil.ID(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.respondAfter(writer, request, handler.synchronizer.RemoveProductFromCart(request.Context(), productID))
}

/*
DELETE /api/v1/cart
*/
func (handler *Handler) clear(writer http.ResponseWriter, request *http.Request) {
	handler.respondAfter(writer, request, handler.synchronizer.ClearCart(request.Context()))
}

/*
GET /api/v1/cart/products/{productID}

Response:
  - 200: productView
*/
func (handler *Handler) product(writer http.ResponseWriter, request *http.Request) {
	productID, err := requestutil.ID(request, "productID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := productView{}
	if line, ok := handler.synchronizer.IsProductInCart(productID); ok {
		result = productView{InCart: true, Quantity: line.Quantity, Line: &line}
	}
	respond.OK(writer, result)
}
