package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/pkg/db/pagination"
)

type listRunsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Page      string `form:"page"`
}

// ListRuns pages through the report history, newest first.
func (s *Server) ListRuns(c *gin.Context) {
	var query listRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRunsRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Page: strings.TrimSpace(query.Page),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
