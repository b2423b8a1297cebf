// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/catalog"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/session"
	"github.com/taibuivan/shopie/pkg/pointer"
)

type fakeRequester struct {
	role     sec.Role
	requests []backend.Request
	answer   func(req backend.Request) (json.RawMessage, error)
}

func (f *fakeRequester) AuthenticatedRequest(_ context.Context, req backend.Request) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	return f.answer(req)
}

func (f *fakeRequester) Current() session.Session {
	return session.Session{
		Token:  "t",
		User:   &session.User{ID: 1, Email: "admin@shopie.test", Role: f.role},
		Status: session.StatusAuthenticated,
	}
}

func newService(role sec.Role, answer func(req backend.Request) (json.RawMessage, error)) (*catalog.Service, *fakeRequester) {
	fake := &fakeRequester{role: role, answer: answer}
	return catalog.NewService(fake, slog.New(slog.NewTextHandler(io.Discard, nil))), fake
}

func answerWith(t *testing.T, value any) func(backend.Request) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return func(backend.Request) (json.RawMessage, error) { return raw, nil }
}

/*
TestCategories_SoftFail verifies that only credential failures surface.
*/
func TestCategories_SoftFail(t *testing.T) {
	service, _ := newService(sec.RoleCustomer, func(backend.Request) (json.RawMessage, error) {
		return nil, apperr.Server(errors.New("503"))
	})
	categories, err := service.Categories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)
	assert.NotNil(t, categories)

	service, _ = newService(sec.RoleCustomer, func(backend.Request) (json.RawMessage, error) {
		return nil, apperr.Auth("expired")
	})
	_, err = service.Categories(context.Background())
	assert.True(t, apperr.IsAuth(err))
}

/*
TestProducts_HardFail verifies that product reads surface every error.
*/
func TestProducts_HardFail(t *testing.T) {
	service, _ := newService(sec.RoleCustomer, func(backend.Request) (json.RawMessage, error) {
		return nil, apperr.Network(errors.New("refused"))
	})
	_, err := service.Products(context.Background())
	assert.True(t, apperr.IsNetwork(err))
}

/*
TestSearch_NormalisesTerm composes accents and collapses whitespace.
*/
func TestSearch_NormalisesTerm(t *testing.T) {
	service, fake := newService(sec.RoleCustomer, answerWith(t, []catalog.Product{}))

	_, err := service.Search(context.Background(), "  Éclair   au chocolat ")
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/products/search", fake.requests[0].Path)
	assert.Equal(t, "Éclair au chocolat", fake.requests[0].Query.Get("nom"))
}

/*
TestBrowse covers endpoint selection, local filters and ordering.
*/
func TestBrowse(t *testing.T) {
	fruits := &catalog.Category{ID: 1, Name: "Fruits"}
	pastries := &catalog.Category{ID: 2, Name: "Pâtisserie"}
	products := []catalog.Product{
		{ID: 1, Name: "Zèbre", Price: 30, Category: fruits},
		{ID: 2, Name: "Éclair", Price: 3, Category: pastries},
		{ID: 3, Name: "Banane", Price: 2, Category: fruits},
	}

	t.Run("name_order_uses_collation", func(t *testing.T) {
		service, fake := newService(sec.RoleCustomer, answerWith(t, products))

		result, err := service.Browse(context.Background(), catalog.Query{})
		require.NoError(t, err)
		assert.Equal(t, "/products", fake.requests[0].Path)
		require.Len(t, result, 3)
		assert.Equal(t, []string{"Banane", "Éclair", "Zèbre"}, []string{result[0].Name, result[1].Name, result[2].Name})
	})

	t.Run("category_only", func(t *testing.T) {
		service, fake := newService(sec.RoleCustomer, answerWith(t, products))

		_, err := service.Browse(context.Background(), catalog.Query{CategoryID: 2})
		require.NoError(t, err)
		assert.Equal(t, "/products/category/2", fake.requests[0].Path)
	})

	t.Run("term_with_category_and_price", func(t *testing.T) {
		service, fake := newService(sec.RoleCustomer, answerWith(t, products))

		result, err := service.Browse(context.Background(), catalog.Query{
			Term:       "a",
			CategoryID: 1,
			MaxPrice:   pointer.To(10.0),
			Sort:       catalog.SortPriceDesc,
		})
		require.NoError(t, err)
		assert.Equal(t, "/products/search", fake.requests[0].Path)
		require.Len(t, result, 1)
		assert.Equal(t, int64(3), result[0].ID)
	})

	t.Run("price_ascending", func(t *testing.T) {
		service, _ := newService(sec.RoleCustomer, answerWith(t, products))

		result, err := service.Browse(context.Background(), catalog.Query{MinPrice: pointer.To(2.5), Sort: catalog.SortPriceAsc})
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, int64(2), result[0].ID)
		assert.Equal(t, int64(1), result[1].ID)
	})
}

/*
TestAdmin_Guard refuses customers locally and validates input for admins.
*/
func TestAdmin_Guard(t *testing.T) {
	service, fake := newService(sec.RoleCustomer, answerWith(t, catalog.Product{}))

	_, err := service.CreateProduct(context.Background(), catalog.ProductInput{Name: "Pomme", Price: 1})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.True(t, apperr.HasCode(service.DeleteCategory(context.Background(), 3), apperr.CodeForbidden))
	assert.Empty(t, fake.requests)

	admin, adminFake := newService(sec.RoleAdmin, answerWith(t, catalog.Product{ID: 9, Name: "Pomme", Price: 1}))

	_, err = admin.CreateProduct(context.Background(), catalog.ProductInput{Name: " ", Price: -1})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Empty(t, adminFake.requests)

	product, err := admin.UpdateProduct(context.Background(), 9, catalog.ProductInput{
		Name:     " Pomme ",
		Price:    1,
		ImageURL: pointer.To(""),
		Category: &catalog.CategoryRef{ID: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), product.ID)

	require.Len(t, adminFake.requests, 1)
	assert.Equal(t, http.MethodPut, adminFake.requests[0].Method)
	assert.Equal(t, "/products/9", adminFake.requests[0].Path)
	body, err := json.Marshal(adminFake.requests[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nom":"Pomme","description":"","prix":1,"stock":0,"imageUrl":null,"category":{"id":1}}`, string(body))
}
