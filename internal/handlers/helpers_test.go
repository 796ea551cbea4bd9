package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	testAccountID = uuid.MustParse("6f1c2d9e-1b7a-4c70-9d3e-0a5b8c7d6e01")
	testUserID    = uuid.MustParse("0d4e8a1f-3c2b-4e6d-8f70-91a2b3c4d5e6")
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newScopedApp mimics middleware.AuthRequired for the given role.
func newScopedApp(role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", testUserID.String())
		c.Locals("account_id", testAccountID.String())
		c.Locals("role", role)
		return c.Next()
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var payload envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, payload
}

func expectStatus(t *testing.T, got, want int, payload envelope) {
	t.Helper()
	if got != want {
		t.Fatalf("expected %d, got %d (error %q)", want, got, payload.Error)
	}
	if want < http.StatusBadRequest && !payload.Success {
		t.Fatalf("expected success envelope, got error %q", payload.Error)
	}
	if want >= http.StatusBadRequest && payload.Success {
		t.Fatal("expected failure envelope")
	}
}
