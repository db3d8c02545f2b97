package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/export"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
)

func (s *Server) GetOccupancy(c *gin.Context) {
	report, ok := s.occupancyReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) ExportOccupancy(c *gin.Context) {
	report, ok := s.occupancyReport(c)
	if !ok {
		return
	}
	s.writeTable(c, occupancydomain.Page, export.OccupancyTable(report), filterLabel(report.Filter.Destinations))
}

func (s *Server) occupancyReport(c *gin.Context) (occupancydomain.Report, bool) {
	var filter catalogdomain.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		AbortWithError(c, invalidRequestError())
		return occupancydomain.Report{}, false
	}
	c.Set("report_page", occupancydomain.Page)

	report, err := s.occupancySvc.Report(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return occupancydomain.Report{}, false
	}
	return report, true
}
