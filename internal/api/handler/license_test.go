package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/delivery/internal/core"
)

func newLicenseHandler(db core.DB) *License {
	return NewLicense(core.NewLicenseService(db, core.NewBus()))
}

func TestLicenseUpdate_IntervalOutOfRange(t *testing.T) {
	h := newLicenseHandler(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPut, "/licenses/21", map[string]any{
		"expire_alert_interval_day": 200,
	}), "id", "21")

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLicenseGet_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	h := newLicenseHandler(db)

	row := &handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/licenses/99", nil), "id", "99")

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLicenseGet_BadID(t *testing.T) {
	h := newLicenseHandler(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/licenses/0", nil), "id", "0")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
