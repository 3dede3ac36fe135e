package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsHeaders = "Authorization,Content-Type"
	corsMaxAge  = "86400"
)

type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			p.any = true
		default:
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" to omit it.
func (p originPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if p.any {
		return "*"
	}
	if _, ok := p.allowed[origin]; ok {
		return origin
	}
	return ""
}

// CORS answers preflight requests itself; the CLI client never sends Origin,
// so only browser callers are affected.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		if value := policy.allow(c.GetHeader("Origin")); value != "" {
			c.Header("Access-Control-Allow-Origin", value)
			if value != "*" {
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", corsHeaders)
		c.Header("Access-Control-Max-Age", corsMaxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
