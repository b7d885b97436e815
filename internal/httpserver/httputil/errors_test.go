package httputil

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return WriteError(c, fiber.StatusNotFound, "unknown api key")
	})
	app.Get("/blank", func(c *fiber.Ctx) error {
		return WriteError(c, fiber.StatusInternalServerError, "")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "unknown api key", payload.Error.Message)
	require.Equal(t, "not_found", payload.Error.Code)

	resp, err = app.Test(httptest.NewRequest("GET", "/blank", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "Internal Server Error", payload.Error.Message)
	require.Equal(t, "internal_error", payload.Error.Code)
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{fiber.StatusBadRequest, "invalid_request"},
		{fiber.StatusUnauthorized, "unauthorized"},
		{fiber.StatusNotFound, "not_found"},
		{fiber.StatusServiceUnavailable, "unavailable"},
		{fiber.StatusBadGateway, "internal_error"},
		{fiber.StatusConflict, "request_error"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, codeForStatus(tt.status))
	}
}
