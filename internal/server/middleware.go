package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cuadra/internal/erp"
	obscontext "github.com/smallbiznis/cuadra/internal/observability/context"
	"github.com/smallbiznis/cuadra/internal/session"
)

const contextSessionKey = "session"

// SessionRequired resolves the portal session from its cookie and carries
// its id and cached ERP capabilities in the request context.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := s.cookie.Read(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.sessions.Get(c.Request.Context(), sid)
		if err != nil {
			s.cookie.Clear(c)
			AbortWithError(c, err)
			return
		}

		ctx := obscontext.WithSessionID(c.Request.Context(), sess.ID)
		if sess.Capabilities != nil {
			ctx = erp.ContextWithCapabilities(ctx, *sess.Capabilities)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextSessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}
