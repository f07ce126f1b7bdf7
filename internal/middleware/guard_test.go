package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newGuardApp(t *testing.T, cfg *config.Config) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	app := fiber.New()
	app.Get("/admin/ping",
		JWTProtected(cfg),
		RequireRole(gdb, cfg, "admin"),
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) },
	)
	return app, mock
}

func signToken(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"sid":   uuid.NewString(),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestGuardMissingToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, LoginURL: "/login"}
	app, _ := newGuardApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/ping", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Redirect != "/login" {
		t.Errorf("redirect = %q, want /login", body.Redirect)
	}
}

func TestGuardRoleMismatch(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, LoginURL: "/login"}
	app, mock := newGuardApp(t, cfg)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT "role" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "member@example.org"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}

	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Redirect != "/unauthorized" {
		t.Errorf("redirect = %q, want /unauthorized", body.Redirect)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGuardAdminRole(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, LoginURL: "/login"}
	app, mock := newGuardApp(t, cfg)

	mock.ExpectQuery(`SELECT "role" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), "boss@example.org"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardAdminEmailShortCircuit(t *testing.T) {
	// Configured admin emails skip the store read entirely; no query is
	// expected on the mock.
	cfg := &config.Config{
		JWTSecret:   testSecret,
		LoginURL:    "/login",
		AdminEmails: "ops@example.org",
	}
	app, mock := newGuardApp(t, cfg)

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), "ops@example.org"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected store access: %v", err)
	}
}

func TestGuardOperatorToken(t *testing.T) {
	// A session is still required; the operator token only replaces the role
	// check, so a non-admin session with the token passes without a store read.
	cfg := &config.Config{JWTSecret: testSecret, LoginURL: "/login", AdminToken: "op-token"}
	app, _ := newGuardApp(t, cfg)

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), "member@example.org"))
	req.Header.Set("X-Admin-Token", "op-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardStoreFailureDegradesToForbidden(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, LoginURL: "/login"}
	app, mock := newGuardApp(t, cfg)

	mock.ExpectQuery(`SELECT "role" FROM "users"`).WillReturnError(gorm.ErrInvalidDB)

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), "member@example.org"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
