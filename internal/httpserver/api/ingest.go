package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
)

func triggerIngest(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}

		result, err := container.Ingest.Sync(userContext(c), rc.Tenant)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "storefront sync failed")
		}

		container.Observability.RecordIngestedRecords(rc.Tenant.ID, "customers", result.Customers)
		container.Observability.RecordIngestedRecords(rc.Tenant.ID, "products", result.Products)
		container.Observability.RecordIngestedRecords(rc.Tenant.ID, "orders", result.Orders)

		return c.JSON(result)
	}
}
