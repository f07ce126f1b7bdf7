package config

import (
	"testing"
	"time"
)

func TestAdminEmailList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "ops@example.org", []string{"ops@example.org"}},
		{"multiple with spaces", " a@x.org , b@x.org ,c@x.org", []string{"a@x.org", "b@x.org", "c@x.org"}},
		{"trailing comma", "a@x.org,", []string{"a@x.org"}},
		{"only commas", ",,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AdminEmails: tt.in}
			got := cfg.AdminEmailList()
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBUser:     "svc",
		DBPassword: "secret",
		DBName:     "community",
		DBSSLMode:  "require",
	}
	want := "host=db.internal user=svc password=secret dbname=community port=5433 sslmode=require TimeZone=UTC"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("JWT_REFRESH_EXPIRY", "")
	t.Setenv("AMQP_EXCHANGE", "")
	t.Setenv("LOGIN_URL", "")

	cfg := Load()

	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want localhost", cfg.DBHost)
	}
	if cfg.JWTAccessExpiry != 15*time.Minute {
		t.Errorf("JWTAccessExpiry = %v, want 15m", cfg.JWTAccessExpiry)
	}
	if cfg.JWTRefreshExpiry != 168*time.Hour {
		t.Errorf("JWTRefreshExpiry = %v, want 168h", cfg.JWTRefreshExpiry)
	}
	if cfg.AMQPExchange != "community.events" {
		t.Errorf("AMQPExchange = %q", cfg.AMQPExchange)
	}
	if cfg.LoginURL != "/login" {
		t.Errorf("LoginURL = %q, want /login", cfg.LoginURL)
	}
}

func TestParseDurationFallback(t *testing.T) {
	if got := parseDuration("garbage"); got != 15*time.Minute {
		t.Errorf("fallback = %v, want 15m", got)
	}
	if got := parseDuration("2h30m"); got != 2*time.Hour+30*time.Minute {
		t.Errorf("parsed = %v", got)
	}
}
