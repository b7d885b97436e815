package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	"github.com/mahesh-1-0/shopify-insights/internal/shopify"
)

// oauthAuthorizeURL starts the install flow for the caller's shop.
func oauthAuthorizeURL(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shop := strings.TrimSpace(c.Query("shop"))
		if shop == "" {
			return httputil.WriteError(c, fiber.StatusBadRequest, "shop query parameter required")
		}

		url, err := container.Connect.AuthorizeURL(userContext(c), shop)
		if err != nil {
			if errors.Is(err, shopify.ErrOAuthDisabled) {
				return httputil.WriteError(c, fiber.StatusServiceUnavailable, "storefront oauth is not configured")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to build authorize url")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// oauthCallback completes the install. The state was minted by
// oauthAuthorizeURL and is single use.
func oauthCallback(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shop := strings.TrimSpace(c.Query("shop"))
		code := c.Query("code")
		state := c.Query("state")
		if shop == "" || code == "" || state == "" {
			return httputil.WriteError(c, fiber.StatusBadRequest, "shop, code and state query parameters required")
		}

		tenant, err := container.Connect.CompleteInstall(userContext(c), shop, code, state)
		if err != nil {
			if errors.Is(err, shopify.ErrInvalidState) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "invalid or expired oauth state")
			}
			if errors.Is(err, shopify.ErrOAuthDisabled) {
				return httputil.WriteError(c, fiber.StatusServiceUnavailable, "storefront oauth is not configured")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to complete install")
		}
		return c.JSON(tenant)
	}
}
