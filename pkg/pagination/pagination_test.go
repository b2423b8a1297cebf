// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/shopie/pkg/pagination"
)

func TestFromRequest_Clamping(t *testing.T) {
	params := pagination.FromRequest(httptest.NewRequest("GET", "/admin/users?page=-2&limit=500", nil))
	assert.Equal(t, pagination.Params{Page: 1, Limit: pagination.DefaultLimit}, params)
	assert.Equal(t, 0, params.BackendPage())

	params = pagination.FromRequest(httptest.NewRequest("GET", "/admin/users?page=3&limit=10", nil))
	assert.Equal(t, 2, params.BackendPage())
}

func TestSpringPage_Meta(t *testing.T) {
	page := pagination.SpringPage[string]{Content: []string{"a"}, TotalElements: 41, TotalPages: 5, Number: 0, Size: 10}
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 10, Total: 41, TotalPages: 5}, page.Meta())
}
