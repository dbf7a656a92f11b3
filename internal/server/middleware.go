package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safeguardhq/safeguard/internal/observability/obscontext"
)

const (
	ctxRoleKey  = "actor_role"
	ctxActorKey = "actor_id"
)

// KeyAuthRequired resolves the bearer key to a role. Keys are static
// per deployment: one per terminal fleet, one for the manager console,
// one for back-office tooling. An empty configured key disables the
// role entirely.
func (s *Server) KeyAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role := s.roleForKey(key)
		if role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(ctxRoleKey, role)
		if actor := strings.TrimSpace(c.GetHeader("X-Actor-Id")); actor != "" {
			c.Set(ctxActorKey, actor)
		}

		ctx := obscontext.WithActorRole(c.Request.Context(), role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (s *Server) roleForKey(key string) string {
	switch {
	case keyMatches(key, s.cfg.TerminalKey):
		return "terminal"
	case keyMatches(key, s.cfg.ManagerKey):
		return "manager"
	case keyMatches(key, s.cfg.AdminKey):
		return "admin"
	}
	return ""
}

func keyMatches(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireCapability enforces the casbin policy for the resolved role.
func (s *Server) requireCapability(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRoleKey)
		if role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}

func (s *Server) actorID(c *gin.Context) string {
	if actor := c.GetString(ctxActorKey); actor != "" {
		return actor
	}
	return c.GetString(ctxRoleKey)
}

func terminalID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Terminal-Id"))
}
