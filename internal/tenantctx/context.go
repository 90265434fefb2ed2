package tenantctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type keyType string

const tenantIDKey keyType = "tenant_id"

// WithTenantID returns a context carrying the tenant identifier.
func WithTenantID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

// TenantID extracts the tenant identifier from the context.
func TenantID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(tenantIDKey).(snowflake.ID)
	return id, ok
}
