package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"budgetly/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromAppConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = "/tmp/x.db"

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "/tmp/x.db" {
		t.Fatalf("FromAppConfig() = %+v", got)
	}

	cfg.DataBackend = "sheets"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	factory := NewFactory(testLogger())

	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "test.db")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := factory.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()

			if err := res.Slot.Set(ctx, "k", "v"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			v, ok, err := res.Slot.Get(ctx, "k")
			if err != nil || !ok || v != "v" {
				t.Fatalf("Get() = %q, %v, %v", v, ok, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 4 || got[0] != "memory" || got[3] != "postgres" {
		t.Fatalf("GetBackendTypeStrings() = %v", got)
	}
}
