package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, expiresAt, err := tm.GenerateToken("organizer-1", RoleOrganizer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 14*time.Minute {
		t.Fatalf("expires at %v, want about 15 minutes from now", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "organizer-1" || claims.Role != RoleOrganizer {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken("organizer-1", RoleOrganizer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewTokenManager("other-secret", 1)
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestGenerateTokenRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	if _, _, err := tm.GenerateToken("someone", Role("admin")); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func newTestApp(tm *TokenManager, allowed ...Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	app.Get("/protected", NewAuthMiddleware(tm).Handle, RequireRole(allowed...), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.SubjectID)
	})
	return app
}

func TestMiddlewareAndRoles(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	organizer, _, err := tm.GenerateToken("organizer-1", RoleOrganizer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	viewer, _, err := tm.GenerateToken("viewer-1", RoleViewer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + organizer, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"viewer", "Bearer " + viewer, http.StatusForbidden},
		{"organizer", "Bearer " + organizer, http.StatusOK},
	}
	app := newTestApp(tm, RoleOrganizer)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/", RequireRole(RoleViewer), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
