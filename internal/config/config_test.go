package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8081")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTIssuer != "psup-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "psup-auth")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.PsupIDPattern != "/^[0-9]{6,8}$/" {
		t.Errorf("PsupIDPattern = %q, want default", cfg.PsupIDPattern)
	}
	if cfg.RolloverKafkaTopic != "psup-rollover" {
		t.Errorf("RolloverKafkaTopic = %q, want psup-rollover", cfg.RolloverKafkaTopic)
	}
	if cfg.SMTPPort != 25 {
		t.Errorf("SMTPPort = %d, want 25", cfg.SMTPPort)
	}
	if cfg.MailEnabled() {
		t.Error("MailEnabled should be false without SMTP_HOST")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("PSUP_ID_PATTERN", "^[A-Z]{3}[0-9]{4}$")
	os.Setenv("PSUP_DEFAULT_ROLE_ID", "5")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("PUBLIC_URL", "https://learn.example.org/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.PsupIDPattern != "^[A-Z]{3}[0-9]{4}$" {
		t.Errorf("PsupIDPattern = %q", cfg.PsupIDPattern)
	}
	if cfg.PsupDefaultRoleID != 5 {
		t.Errorf("PsupDefaultRoleID = %d, want 5", cfg.PsupDefaultRoleID)
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.PublicURL != "https://learn.example.org" {
		t.Errorf("PublicURL = %q, trailing slash should be trimmed", cfg.PublicURL)
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_NegativeDefaultRole(t *testing.T) {
	os.Clearenv()
	os.Setenv("PSUP_DEFAULT_ROLE_ID", "-1")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject a negative default role id")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_ProductionRequiresSMTP(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil || err.Error() != "config: SMTP_HOST must be set when APP_ENV=production" {
		t.Fatalf("err = %v, want SMTP_HOST error", err)
	}

	os.Setenv("SMTP_DISABLE", "true")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with SMTP_DISABLE: %v", err)
	}
}

func TestAccessTTL(t *testing.T) {
	cases := map[string]time.Duration{
		"30m":     30 * time.Minute,
		"invalid": 2 * time.Hour,
		"0":       2 * time.Hour,
		"-5m":     2 * time.Hour,
	}
	for in, want := range cases {
		c := &Config{JWTAccessTTL: in}
		if got := c.AccessTTL(); got != want {
			t.Errorf("AccessTTL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestKafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should yield nil brokers")
	}
	c := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := c.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
}
