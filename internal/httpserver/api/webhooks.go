package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	"github.com/mahesh-1-0/shopify-insights/internal/services/webhook"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// receiveWebhook accepts storefront deliveries. The tenant comes from the
// URL rather than the API key: the storefront signs deliveries with the
// tenant's webhook secret instead.
func receiveWebhook(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := strconv.ParseInt(c.Params("tenantID"), 10, 64)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid tenant id")
		}

		ctx := userContext(c)
		tenant, err := container.Store.Tenants.GetByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, storage.ErrTenantNotFound) {
				return httputil.WriteError(c, fiber.StatusNotFound, "unknown tenant")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "tenant lookup failed")
		}

		body := c.Body()
		signature := c.Get("X-Shopify-Hmac-Sha256")
		if err := webhook.Verify(tenant.WebhookSecret, body, signature); err != nil {
			return httputil.WriteError(c, fiber.StatusUnauthorized, "webhook signature mismatch")
		}

		topic := c.Get("X-Shopify-Topic")
		if err := container.Webhooks.Process(ctx, tenant, topic, body); err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to process webhook")
		}
		return c.JSON(fiber.Map{"received": true})
	}
}
