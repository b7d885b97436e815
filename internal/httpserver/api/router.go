package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
)

// Register mounts the dashboard-facing API. Webhook delivery and the
// OAuth callback stay outside the API-key gate; everything else resolves
// a tenant first.
func Register(router fiber.Router, container *app.Container) {
	api := router.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api.Get("/auth/callback", oauthCallback(container))
	api.Post("/webhooks/:tenantID", receiveWebhook(container))

	scoped := api.Group("", tenantAuth(container))
	scoped.Get("/insights", getInsights(container))
	scoped.Post("/ingest", triggerIngest(container))
	scoped.Get("/customers", listCustomers(container))
	scoped.Get("/products", listProducts(container))
	scoped.Get("/orders", listOrders(container))
	scoped.Post("/events", createEvent(container))
	scoped.Get("/events", listEvents(container))
	scoped.Get("/auth/url", oauthAuthorizeURL(container))
}
