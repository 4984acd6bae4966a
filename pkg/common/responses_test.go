package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPaginationMeta(t *testing.T) {
	meta := BuildPaginationMeta(2, 10, 25)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.PageSize)
	assert.Equal(t, 25, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	last := BuildPaginationMeta(3, 10, 25)
	assert.False(t, last.HasNext)

	empty := BuildPaginationMeta(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestRespondPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	items := []string{"a", "b"}

	RespondPaginated(rec, http.StatusOK, items, BuildPaginationMeta(1, 2, 5))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.True(t, got.Success)
	require.NotNil(t, got.Meta)
	require.NotNil(t, got.Meta.Pagination)
	assert.Equal(t, 1, got.Meta.Pagination.Page)
	assert.Equal(t, 5, got.Meta.Pagination.Total)
	assert.Equal(t, 3, got.Meta.Pagination.TotalPages)
	assert.True(t, got.Meta.Pagination.HasNext)
}
