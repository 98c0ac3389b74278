package middleware

import (
	"crypto/subtle"
	"net/http"

	"catalog-service/internal/models"
	"github.com/gin-gonic/gin"
)

// AdminUserKey is the context key holding the authenticated admin username
const AdminUserKey = "admin_user"

const devAdminUser = "dev-admin"

// AdminAuth guards admin routes with HTTP basic credentials. An empty
// password means development mode: requests pass as a fixed dev user.
func AdminAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			c.Set(AdminUserKey, devAdminUser)
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !credentialsMatch(user, username) || !credentialsMatch(pass, password) {
			c.Header("WWW-Authenticate", `Basic realm="catalog-admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UNAUTHORIZED",
					Message: "Admin credentials required",
				},
			})
			return
		}

		c.Set(AdminUserKey, user)
		c.Next()
	}
}

// GetAdminUser returns the admin username set by AdminAuth
func GetAdminUser(c *gin.Context) string {
	return c.GetString(AdminUserKey)
}

func credentialsMatch(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
