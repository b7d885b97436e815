package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

// getInsights serves the aggregated overview for the tenant and the
// requested window.
func getInsights(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}

		start := time.Now()
		overview, err := container.Insights.Overview(userContext(c), rc.Tenant.ID, c.Query("from"), c.Query("to"))
		if err != nil {
			if errors.Is(err, timeutil.ErrInvalidRange) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "invalid from/to date range")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to compute insights")
		}
		container.Observability.RecordInsights(rc.Tenant.ID, time.Since(start))

		return c.JSON(overview)
	}
}
