package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mahesh-1-0/shopify-insights/internal/app"
	"github.com/mahesh-1-0/shopify-insights/internal/httpserver/httputil"
	eventsvc "github.com/mahesh-1-0/shopify-insights/internal/services/events"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

func createEvent(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}

		var input eventsvc.CreateInput
		if err := c.BodyParser(&input); err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid event payload")
		}

		event, err := container.Events.Create(userContext(c), rc.Tenant.ID, input)
		if err != nil {
			if errors.Is(err, eventsvc.ErrInvalidEvent) {
				return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to record event")
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	}
}

// listEvents shares the insights window semantics and narrows by optional
// eventType and customerId filters.
func listEvents(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := tenantFromLocals(c)
		if !ok {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "missing tenant context")
		}

		query := eventsvc.ListQuery{
			From:       c.Query("from"),
			To:         c.Query("to"),
			EventType:  c.Query("eventType"),
			CustomerID: c.Query("customerId"),
			Limit:      c.QueryInt("limit", 0),
		}
		events, err := container.Events.List(userContext(c), rc.Tenant.ID, query)
		if err != nil {
			if errors.Is(err, timeutil.ErrInvalidRange) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "invalid from/to date range")
			}
			if errors.Is(err, eventsvc.ErrInvalidQuery) {
				return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to list events")
		}
		return c.JSON(fiber.Map{"events": events})
	}
}
