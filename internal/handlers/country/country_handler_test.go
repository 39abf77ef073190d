package country_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dealbridge-billing/internal/handlers/country"
	xerrors "dealbridge-billing/internal/pkg/errors"
)

type stubDirectory struct {
	names []string
	err   error
}

func (s stubDirectory) List(context.Context) ([]string, error) { return s.names, s.err }

func get(d stubDirectory) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/countries", country.NewCountryHandler(d).List)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/countries", nil))
	return w
}

func TestListCountries(t *testing.T) {
	w := get(stubDirectory{names: []string{"Kenya", "Nigeria"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Contains(t, w.Body.String(), `"Nigeria"`)
}

func TestListCountriesUpstreamDown(t *testing.T) {
	w := get(stubDirectory{err: xerrors.Downstream("countries", assert.AnError)})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
