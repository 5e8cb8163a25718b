package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageable_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/processes", nil)
	p := ParsePageable(r)
	assert.Equal(t, 0, p.Number)
	assert.Equal(t, DefaultPageSize, p.Size)
}

func TestParsePageable_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/processes?pageNumber=3&pageSize=50", nil)
	p := ParsePageable(r)
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 50, p.Size)
}

func TestParsePageable_ClampsAndIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/processes?pageNumber=-1&pageSize=9999", nil)
	p := ParsePageable(r)
	assert.Equal(t, 0, p.Number)
	assert.Equal(t, MaxPageSize, p.Size)

	r = httptest.NewRequest("GET", "/api/v1/processes?pageNumber=abc&pageSize=xyz", nil)
	p = ParsePageable(r)
	assert.Equal(t, 0, p.Number)
	assert.Equal(t, DefaultPageSize, p.Size)
}
