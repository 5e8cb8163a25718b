package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestWritePage(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePage(rec, http.StatusOK, []string{"a", "b"}, 2, 0, 20, 2)

	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.TotalElements)
	assert.Equal(t, 2, page.NumberOfElements)
	assert.Equal(t, 0, page.Number)
	assert.True(t, page.Last)
}

func TestWritePage_NotLast(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePage(rec, http.StatusOK, []string{"a"}, 1, 0, 1, 3)

	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.False(t, page.Last)
}
