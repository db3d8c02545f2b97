package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) Login(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := s.loginLimiter.Allow(ctx, c.ClientIP())
	if err != nil {
		// Fail open when redis is unreachable.
		s.log.Warn("login limiter unavailable", zap.Error(err))
	} else if !result.Allowed {
		if result.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
		}
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.gate.Check(req.Password); err != nil {
		s.obsMetrics.RecordLogin(ctx, false)
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordLogin(ctx, true)

	sess, err := s.sessions.Create(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.cookie.Set(c, sess.ID, sess.ExpiresAt)

	c.JSON(http.StatusOK, LoginResponse{ExpiresAt: sess.ExpiresAt.UTC().Format(timeLayout)})
}

// Logout destroys the session along with every cached report.
func (s *Server) Logout(c *gin.Context) {
	if sid, ok := s.cookie.Read(c); ok {
		if err := s.sessions.Destroy(c.Request.Context(), sid); err != nil {
			s.log.Warn("destroy session failed", zap.Error(err))
		}
	}
	s.cookie.Clear(c)
	c.Status(http.StatusNoContent)
}
