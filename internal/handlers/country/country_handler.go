// internal/handlers/country/country_handler.go
package country

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/pkg/response"
)

type Directory interface {
	List(ctx context.Context) ([]string, error)
}

type CountryHandler struct {
	directory Directory
}

func NewCountryHandler(directory Directory) *CountryHandler {
	return &CountryHandler{directory: directory}
}

func (h *CountryHandler) List(c *gin.Context) {
	countries, err := h.directory.List(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list countries", err)
		return
	}
	response.Success(c, http.StatusOK, "countries retrieved", gin.H{
		"countries": countries,
		"count":     len(countries),
	})
}
