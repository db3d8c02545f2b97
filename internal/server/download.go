package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cuadra/internal/export"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

// filterLabel names a download after a single-value filter dimension.
func filterLabel(values []string) string {
	if len(values) == 1 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func (s *Server) writeTable(c *gin.Context, page string, t export.Table, label string) {
	var buf bytes.Buffer
	if err := export.CSV(&buf, t); err != nil {
		AbortWithError(c, err)
		return
	}
	name := export.FileName(page, t.Name, label, "csv", s.clock.Now())
	s.writeAttachment(c, name, contentTypeCSV, buf.Bytes())
}

func (s *Server) writeAttachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, body)
}
