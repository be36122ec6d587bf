package handler

import (
	"net/http"

	"invoicehub/internal/service"
	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/tax")
	{
		tax.GET("/countries", h.GetCountryDefaults)
		tax.GET("/countries/:code", h.GetCountryDefault)
	}
}

// GetCountryDefaults lists the advisory tax preset per country
// @Summary      Country tax presets
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]billing.CountryTaxDefault}
// @Router       /api/tax/countries [get]
func (h *TaxHandler) GetCountryDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.taxService.CountryDefaults()))
}

// GetCountryDefault returns the preset for one ISO country code
// @Summary      Country tax preset
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "ISO 3166-1 alpha-2 code"
// @Success      200   {object}  response.Response{data=billing.CountryTaxDefault}
// @Failure      404   {object}  response.Response
// @Router       /api/tax/countries/{code} [get]
func (h *TaxHandler) GetCountryDefault(c *gin.Context) {
	preset, err := h.taxService.CountryDefault(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preset))
}
