package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cuadra/internal/erp"
)

const timeLayout = time.RFC3339

type capabilitiesResponse struct {
	Capabilities erp.Capabilities `json:"capabilities"`
	CanReconcile bool             `json:"can_reconcile"`
	CanFallback  bool             `json:"can_fallback"`
}

// GetCapabilities negotiates the ERP schema once per session and serves the
// cached result afterwards.
func (s *Server) GetCapabilities(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	ctx, err := s.withCapabilities(c, sess)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	caps, _ := erp.CapabilitiesFromContext(ctx)

	c.JSON(http.StatusOK, capabilitiesResponse{
		Capabilities: caps,
		CanReconcile: caps.CanReconcile(),
		CanFallback:  caps.CanFallback(),
	})
}

func (s *Server) GetCatalogOptions(c *gin.Context) {
	options, err := s.catalogSvc.Options(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}
