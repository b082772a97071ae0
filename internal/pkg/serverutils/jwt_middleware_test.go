package serverutils

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-knowledge-client/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(secret string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNopLogger())})
	app.Use(JwtMiddleware(secret))
	app.Get("/whoami", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals(clientIdLocal).(string))
	})
	return app
}

func TestJwtMiddleware(t *testing.T) {
	app := newProtectedApp("s3cret")

	valid, err := MintToken("s3cret", "cli", time.Minute)
	require.NoError(t, err)
	expired, err := MintToken("s3cret", "cli", -time.Minute)
	require.NoError(t, err)
	foreign, err := MintToken("other", "cli", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, 200, "cli"},
		{"missing header", "", 401, `{"detail":"Missing token"}`},
		{"expired token", "Bearer " + expired, 401, `{"detail":"Invalid token"}`},
		{"wrong secret", "Bearer " + foreign, 401, `{"detail":"Invalid token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestMintToken_RequiresSecret(t *testing.T) {
	_, err := MintToken("", "cli", time.Minute)
	assert.Error(t, err)
}
