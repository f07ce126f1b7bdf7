package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthTest(t *testing.T, cfg *config.Config) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewAuthService(gdb, cfg, nil), mock
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(nil, &config.Config{}, nil)

	tests := []struct {
		name    string
		req     dto.RegisterRequest
		wantErr error
	}{
		{"missing at sign", dto.RegisterRequest{Email: "not-an-email", Password: "longenough"}, ErrInvalidEmail},
		{"missing domain dot", dto.RegisterRequest{Email: "user@host", Password: "longenough"}, ErrInvalidEmail},
		{"embedded whitespace", dto.RegisterRequest{Email: "user @example.com", Password: "longenough"}, ErrInvalidEmail},
		{"short password", dto.RegisterRequest{Email: "user@example.com", Password: "short"}, ErrWeakPassword},
		{"empty password", dto.RegisterRequest{Email: "user@example.com", Password: ""}, ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(&tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, mock := newAuthTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(uuid.NewString(), "taken@example.com"))

	_, err := svc.Register(&dto.RegisterRequest{Email: "taken@example.com", Password: "longenough"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestResolveRole(t *testing.T) {
	t.Run("config list grants admin without store read", func(t *testing.T) {
		svc, mock := newAuthTest(t, &config.Config{AdminEmails: "ops@example.org"})

		if got := svc.resolveRole("ops@example.org"); got != "admin" {
			t.Errorf("role = %q, want admin", got)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected store access: %v", err)
		}
	})

	t.Run("allow-list table grants admin", func(t *testing.T) {
		svc, mock := newAuthTest(t, &config.Config{})

		mock.ExpectQuery(`SELECT (.+) FROM "admin_allowlist"`).
			WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("listed@example.org"))

		if got := svc.resolveRole("listed@example.org"); got != "admin" {
			t.Errorf("role = %q, want admin", got)
		}
	})

	t.Run("unknown email gets user role", func(t *testing.T) {
		svc, mock := newAuthTest(t, &config.Config{})

		mock.ExpectQuery(`SELECT (.+) FROM "admin_allowlist"`).
			WillReturnError(gorm.ErrRecordNotFound)

		if got := svc.resolveRole("member@example.org"); got != "user" {
			t.Errorf("role = %q, want user", got)
		}
	})
}

func TestGetUserRoleDegradesOnStoreFailure(t *testing.T) {
	svc, mock := newAuthTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT "role" FROM "users"`).WillReturnError(gorm.ErrInvalidDB)

	if got := svc.GetUserRole(uuid.New()); got != "" {
		t.Errorf("role = %q, want empty on store failure", got)
	}
}

func TestCompleteResetWeakPassword(t *testing.T) {
	svc := NewAuthService(nil, &config.Config{}, nil)

	err := svc.CompleteReset(&dto.CompleteResetRequest{Token: "whatever", NewPassword: "short"})
	if !errors.Is(err, ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}
}

func TestDefaultDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		given string
		email string
		want  string
	}{
		{"explicit name wins", "Ruth A.", "ruth@example.com", "Ruth A."},
		{"whitespace name falls back", "   ", "ruth@example.com", "ruth"},
		{"empty name uses local part", "", "dan.smith@example.org", "dan.smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultDisplayName(tt.given, tt.email); got != tt.want {
				t.Errorf("defaultDisplayName(%q, %q) = %q, want %q", tt.given, tt.email, got, tt.want)
			}
		})
	}
}

func TestOpaqueToken(t *testing.T) {
	raw, hash, err := newOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	if raw == "" || hash == "" {
		t.Fatal("empty token or hash")
	}
	if raw == hash {
		t.Error("raw token must not equal its hash")
	}
	if hashToken(raw) != hash {
		t.Error("hash does not round-trip")
	}

	raw2, hash2, err := newOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	if raw == raw2 || hash == hash2 {
		t.Error("tokens must be unique")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if hashToken("abc") != hashToken("abc") {
		t.Error("same input must hash identically")
	}
	if hashToken("abc") == hashToken("abd") {
		t.Error("different inputs must not collide")
	}
	if len(hashToken("abc")) != 64 {
		t.Errorf("hex sha256 length = %d, want 64", len(hashToken("abc")))
	}
}
