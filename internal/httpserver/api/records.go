package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

func listCustomers(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}
		customers, err := container.Store.Customers.List(userContext(c), rc.Tenant.ID)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to list customers")
		}
		return c.JSON(fiber.Map{"customers": customers})
	}
}

func listProducts(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}
		products, err := container.Store.Products.List(userContext(c), rc.Tenant.ID)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to list products")
		}
		return c.JSON(fiber.Map{"products": products})
	}
}

// listOrders shares the insights window semantics: optional from/to, with
// the same defaults and end-of-day widening.
func listOrders(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}

		win, err := timeutil.ResolveRange(c.Query("from"), c.Query("to"), time.Now(), container.Location)
		if err != nil {
			if errors.Is(err, timeutil.ErrInvalidRange) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "invalid from/to date range")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to resolve date range")
		}

		orders, err := container.Store.Orders.ListWindow(userContext(c), rc.Tenant.ID, win.From(), win.To())
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to list orders")
		}
		return c.JSON(fiber.Map{"orders": orders})
	}
}
