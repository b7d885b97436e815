package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	"github.com/mahesh-1-0/shopify-insights/internal/requestctx"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// tenantAuth resolves the apiKey query parameter to a tenant and stores
// it on the request. A missing key is a client mistake; an unknown key is
// not found.
func tenantAuth(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := strings.TrimSpace(c.Query("apiKey"))
		if apiKey == "" {
			return httputil.WriteError(c, fiber.StatusBadRequest, "apiKey query parameter required")
		}

		ctx := userContext(c)
		tenant, err := container.Store.Tenants.GetByAPIKey(ctx, apiKey)
		if err != nil {
			if errors.Is(err, storage.ErrTenantNotFound) {
				return httputil.WriteError(c, fiber.StatusNotFound, "unknown api key")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "tenant lookup failed")
		}

		rc := &requestctx.Context{Tenant: tenant}
		c.Locals(requestctx.FiberLocalsKey(), rc)
		c.SetUserContext(requestctx.WithContext(ctx, rc))

		return c.Next()
	}
}

func tenantFromLocals(c *fiber.Ctx) (*requestctx.Context, bool) {
	rc, ok := c.Locals(requestctx.FiberLocalsKey()).(*requestctx.Context)
	return rc, ok
}

func userContext(c *fiber.Ctx) context.Context {
	if c == nil {
		return context.Background()
	}
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}
