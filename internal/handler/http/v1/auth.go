package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wittawat/incident_map_system/internal/access"
	"github.com/wittawat/incident_map_system/internal/config"
	"github.com/wittawat/incident_map_system/internal/service"
)

const ctxRolesKey = "roles"

// RoleMiddleware resolves the caller's verified role claims from the
// X-API-Key header (or Authorization: Bearer). It never aborts: public
// callers simply carry no claims and the access guard decides per
// incident.
func RoleMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		var roles []access.Role
		if apiKey != "" {
			if containsKey(cfg.AdminAPIKeys, apiKey) {
				roles = append(roles, access.RoleAdmin)
			} else if containsKey(cfg.OfficerAPIKeys, apiKey) {
				roles = append(roles, access.RoleOfficer)
			} else {
				log.Warn("Unknown API key presented; treating caller as unauthenticated")
			}
		}
		c.Set(ctxRolesKey, roles)

		c.Next()
	}
}

// RequireOfficer aborts unless the caller carries an OFFICER or ADMIN
// claim. Used for officer-only routes such as incident deletion.
func RequireOfficer(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range rolesFromContext(c) {
			if r == access.RoleOfficer || r == access.RoleAdmin {
				c.Next()
				return
			}
		}
		log.Warn("Officer-only endpoint called without officer credentials")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "officer credentials required",
		})
	}
}

// actorFromContext assembles the guard input for the current request:
// the officer-channel flag, verified role claims, and any presented
// edit token.
func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		OfficerChannel: c.Query("dashboard") == "true",
		Roles:          rolesFromContext(c),
		Token:          c.Query("token"),
	}
}

func rolesFromContext(c *gin.Context) []access.Role {
	if v, ok := c.Get(ctxRolesKey); ok {
		if roles, ok := v.([]access.Role); ok {
			return roles
		}
	}
	return nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
