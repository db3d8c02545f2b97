package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cuadra/internal/config"
)

const DefaultCookieName = "_cuadra_sid"

// Cookie reads and writes the session cookie.
type Cookie struct {
	name   string
	secure bool
}

func NewCookie(cfg config.Config) *Cookie {
	return &Cookie{
		name:   DefaultCookieName,
		secure: cfg.AuthCookieSecure,
	}
}

func (c *Cookie) Name() string {
	return c.name
}

func (c *Cookie) Read(ctx *gin.Context) (string, bool) {
	token, err := ctx.Cookie(c.name)
	if err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func (c *Cookie) Set(ctx *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name, value, maxAge, "/", "", c.secure, true)
}

func (c *Cookie) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name, "", -1, "/", "", c.secure, true)
}
