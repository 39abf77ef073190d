// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

func getString(c *gin.Context, key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(c *gin.Context) (string, bool) {
	id := getString(c, ctxUserID)
	return id, id != ""
}

// MustGetUserID gets the user id from context or panics
func MustGetUserID(c *gin.Context) string {
	id, ok := GetUserID(c)
	if !ok {
		panic("user_id not found in context")
	}
	return id
}

func GetJTI(c *gin.Context) string { return getString(c, ctxJTI) }

func GetUserType(c *gin.Context) string { return getString(c, ctxUserType) }

func GetCountry(c *gin.Context) string { return getString(c, ctxCountry) }

func GetEmail(c *gin.Context) string { return getString(c, ctxEmail) }

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get(ctxRoles)
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}
	return rolesList
}

func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin") || HasRole(c, "super_admin")
}
