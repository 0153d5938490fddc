package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")

	cfg := Load()
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("StoreDriver: got %q, want %q", cfg.StoreDriver, DriverPostgres)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.JWTExpiryHours != 24 {
		t.Errorf("JWTExpiryHours: got %d, want 24", cfg.JWTExpiryHours)
	}
	if !cfg.PostgresListen {
		t.Error("PostgresListen should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("POSTGRES_LISTEN", "false")
	t.Setenv("TELEGRAM_ADMIN_CHAT_IDS", "101, abc, ,202")

	cfg := Load()
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver: got %q, want %q", cfg.StoreDriver, DriverMemory)
	}
	if cfg.PostgresListen {
		t.Error("PostgresListen should be false")
	}
	if len(cfg.TelegramAdminChatIDs) != 2 || cfg.TelegramAdminChatIDs[0] != 101 || cfg.TelegramAdminChatIDs[1] != 202 {
		t.Errorf("TelegramAdminChatIDs: got %v, want [101 202]", cfg.TelegramAdminChatIDs)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "require",
	}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
