package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
)

// TokenParser 校验 Bearer 令牌并还原操作者身份，由认证服务实现.
type TokenParser interface {
	ParseToken(token string) (lifecycle.Actor, error)
}

type actorKey struct{}

const actorContextKey = "actor"

// AuthMiddleware 基于 JWT Bearer 令牌做统一身份认证校验。
//   - Authorization: Bearer <token>
//   - 支持通过配置跳过某些路径（如 /metrics, /api/v1/health, /api/v1/auth）
//   - 解析出的 Actor 注入 gin.Context 与 request.Context，供下游使用.
func AuthMiddleware(conf configs.AuthConfig, parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		actor, err := parser.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// SetActor 把操作者身份写入 gin.Context 与 request.Context.
func SetActor(c *gin.Context, actor lifecycle.Actor) {
	c.Set(actorContextKey, actor)

	ctx := context.WithValue(c.Request.Context(), actorKey{}, actor)
	c.Request = c.Request.WithContext(ctx)
}

// ActorFromContext 取出认证层注入的操作者身份.
func ActorFromContext(c *gin.Context) (lifecycle.Actor, bool) {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok2 := v.(lifecycle.Actor); ok2 {
			return actor, true
		}
	}

	// 回退到 request context
	if v := c.Request.Context().Value(actorKey{}); v != nil {
		if actor, ok := v.(lifecycle.Actor); ok {
			return actor, true
		}
	}

	return lifecycle.Actor{}, false
}

// RequireAdmin 管理端路由守卫，需在 AuthMiddleware 之后挂载.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if !actor.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}

	return ""
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
