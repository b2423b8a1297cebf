// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/constants"
	"github.com/taibuivan/shopie/internal/platform/middleware"
	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/sec"
)

// Handler implements the image endpoints.
type Handler struct {
	service *Service
	roles   middleware.RoleSource
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, roles middleware.RoleSource) *Handler {
	return &Handler{service: service, roles: roles}
}

// Routes returns a [chi.Router] with the image endpoints.
//
// # Endpoints
//   - GET    /{filename} : Redirect to the stored image.
//   - POST   /upload     : Multipart upload, field "file" (admin).
//   - DELETE /{filename} : Remove an image (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{filename}", handler.show)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(handler.roles, sec.RoleAdmin))
		r.Post("/upload", handler.upload)
		r.Delete("/{filename}", handler.remove)
	})

	return router
}

/*
POST /api/v1/images/upload

Request:
  - multipart/form-data with a "file" part

Response:
  - 201: Image
  - 400: VALIDATION_ERROR (missing part, too large, not an image)
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxImageBytes)

	file, header, err := request.FormFile(constants.FieldImageFile)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("A \"file\" part of at most 10 MB is required"))
		return
	}
	defer file.Close()

	image, err := handler.service.Upload(request.Context(), header.Filename, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, image)
}

func (handler *Handler) show(writer http.ResponseWriter, request *http.Request) {
	http.Redirect(writer, request, handler.service.URL(requestutil.Param(request, "filename")), http.StatusTemporaryRedirect)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "filename")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
