package backend

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contas/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromAppConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		if _, err := FromAppConfig(nil); err == nil {
			t.Error("expected error for nil config")
		}
	})

	t.Run("invalid backend", func(t *testing.T) {
		if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("copies fields", func(t *testing.T) {
		got, err := FromAppConfig(&config.Config{
			DataBackend:  "postgres",
			PostgresDSN:  "postgres://localhost/contas",
			AMQPURL:      "amqp://localhost",
			AMQPExchange: "contas",
			AMQPQueue:    "salary_snapshots",
		})
		if err != nil {
			t.Fatalf("FromAppConfig() error = %v", err)
		}
		if got.Type != PostgresBackend || got.PostgresDSN != "postgres://localhost/contas" || got.AMQPQueue != "salary_snapshots" {
			t.Errorf("FromAppConfig() = %+v", got)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory without seed", Config{Type: MemoryBackend}, ""},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without dsn", Config{Type: PostgresBackend}, "PostgreSQL DSN"},
		{"unknown type", Config{Type: "sheets"}, "invalid backend type"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "AMQP exchange and queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	data := `{"households":[{"id":"hh-1","name":"Test","members":["u1"]}]}`
	if err := os.WriteFile(seed, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{Type: MemoryBackend, MemorySeedFile: seed})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Error("Publisher should be nil without AMQP")
	}
	id, err := res.Store.HouseholdForUser(context.Background(), "u1")
	if err != nil || id != "hh-1" {
		t.Errorf("HouseholdForUser() = %q, %v", id, err)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "contas.db")

	res, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestCreateBackend_BadSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{Type: MemoryBackend, MemorySeedFile: seed}); err == nil {
		t.Error("expected error for malformed seed file")
	}
}
