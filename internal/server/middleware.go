package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
)

const HeaderTenant = "X-Tenant-ID"

// TenantContext resolves the tenant from the request header and injects
// it into the request context. Every API route runs behind it.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		tenantID, err := snowflake.ParseString(raw)
		if err != nil || tenantID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
