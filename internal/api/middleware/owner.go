package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OwnerHeader names the caller. There is no authentication; the header is
// trusted as is.
const OwnerHeader = "X-Skydeck-User"

const ownerKey = "skydeck.owner"

// Owner stores the request owner in the gin context. Requests without the
// header fall back to defaultOwner, which may return "".
func Owner(defaultOwner func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" && defaultOwner != nil {
			owner = defaultOwner()
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OwnerFrom returns the owner set by Owner. Empty means anonymous.
func OwnerFrom(c *gin.Context) string {
	return c.GetString(ownerKey)
}
