package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cuadra/internal/export"
	salesdomain "github.com/smallbiznis/cuadra/internal/sales/domain"
)

const pageSales = "sales"

func bindSalesFilter(c *gin.Context) (salesdomain.Filter, bool) {
	var filter salesdomain.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		AbortWithError(c, invalidRequestError())
		return salesdomain.Filter{}, false
	}
	return filter, true
}

func (s *Server) GetSalesByDestination(c *gin.Context) {
	filter, ok := bindSalesFilter(c)
	if !ok {
		return
	}
	c.Set("report_page", salesdomain.PageDestinations)

	report, err := s.salesSvc.ByDestination(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetSalesByAgency(c *gin.Context) {
	filter, ok := bindSalesFilter(c)
	if !ok {
		return
	}
	c.Set("report_page", salesdomain.PageAgencies)

	report, err := s.salesSvc.ByAgency(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) ListSalesTeams(c *gin.Context) {
	teams, err := s.salesSvc.Teams(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// ExportSales downloads the filtered sales lines.
func (s *Server) ExportSales(c *gin.Context) {
	filter, ok := bindSalesFilter(c)
	if !ok {
		return
	}
	lines, err := s.salesSvc.Lines(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.writeTable(c, pageSales, export.SalesTable(lines), filterLabel(filter.Destinations))
}
