// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media uploads and removes product images on the backend and turns the
relative image paths stored on products into absolute URLs.
*/
package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/constants"
	"github.com/taibuivan/shopie/internal/session"
)

const (
	pathImages = "/images"
	pathUpload = pathImages + "/upload"
)

// allowedExtensions mirrors the formats the backend stores.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Requester sends calls with the session's credential.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	AuthenticatedUpload(ctx context.Context, path string, part backend.FilePart) (json.RawMessage, error)
	Current() session.Session
}

// Image is the backend's answer to an upload.
type Image struct {
	// ImageURL is absolute once returned by [Service.Upload].
	ImageURL     string `json:"imageUrl"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
}

// Service manages product images.
type Service struct {
	requester Requester
	baseURL   string
	logger    *slog.Logger
}

// NewService constructs a [Service]. baseURL is the backend root images are served from.
func NewService(requester Requester, baseURL string, logger *slog.Logger) *Service {
	return &Service{requester: requester, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

/*
Upload sends an image to the backend.

Description: Administrators only. The file name must carry an image
extension; the backend renames the file and answers with its relative URL,
which is returned resolved against the backend root.

Returns:
  - Image: Stored name and absolute URL
  - error: FORBIDDEN, VALIDATION_ERROR or any transport error
*/
func (service *Service) Upload(ctx context.Context, filename string, content io.Reader) (Image, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return Image{}, err
	}

	filename = path.Base(strings.TrimSpace(filename))
	if !allowedExtensions[strings.ToLower(path.Ext(filename))] {
		return Image{}, apperr.ValidationError("The file must be an image (JPG, PNG, GIF, WEBP)")
	}

	payload, err := service.requester.AuthenticatedUpload(ctx, pathUpload, backend.FilePart{
		Field:    constants.FieldImageFile,
		Filename: filename,
		Content:  content,
	})
	if err != nil {
		return Image{}, err
	}

	image, err := backend.Decode[Image](payload)
	if err != nil {
		return Image{}, err
	}
	if image.ImageURL == "" {
		return Image{}, apperr.Network(errors.New("media: upload answer carries no imageUrl"))
	}

	image.ImageURL = service.Resolve(image.ImageURL)
	service.logger.InfoContext(ctx, "image_uploaded",
		slog.String("filename", image.Filename),
		slog.String("original_name", image.OriginalName),
	)
	return image, nil
}

// URL returns the absolute address of a stored image.
func (service *Service) URL(filename string) string {
	return service.baseURL + pathImages + "/" + url.PathEscape(filename)
}

// Resolve makes a product's imageUrl absolute. Absolute and empty values are returned unchanged.
func (service *Service) Resolve(imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}
	if !strings.HasPrefix(imageURL, "/") {
		imageURL = "/" + imageURL
	}
	return service.baseURL + imageURL
}

// Delete removes a stored image. Administrators only.
func (service *Service) Delete(ctx context.Context, filename string) error {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return err
	}
	if filename == "" || path.Base(filename) != filename || filename == ".." {
		return apperr.ValidationError("Invalid image name")
	}

	_, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodDelete,
		Path:   pathImages + "/" + url.PathEscape(filename),
	})
	if err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "image_deleted", slog.String("filename", filename))
	return nil
}
