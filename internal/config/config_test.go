package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasktrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Given no file When loading Then defaults apply", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != "3000" {
			t.Errorf("Server.Port = %q, want 3000", cfg.Server.Port)
		}
		if cfg.Auth.TokenTTL != 8*time.Hour {
			t.Errorf("Auth.TokenTTL = %v, want 8h", cfg.Auth.TokenTTL)
		}
		if cfg.Notifier.Kind != "log" {
			t.Errorf("Notifier.Kind = %q, want log", cfg.Notifier.Kind)
		}
		if cfg.Admin.VerifyForcePaths {
			t.Error("Admin.VerifyForcePaths should default to false")
		}
	})

	t.Run("Given a YAML file When loading Then file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: "9090"
database:
  driver: postgres
  dsn: host=db user=tasktrack
  op_timeout: 3s
notifier:
  kind: smtp
  smtp:
    host: smtp.example.com
    port: 2525
admin:
  verify_force_paths: true
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
		}
		if cfg.Database.Driver != "postgres" || cfg.Database.OpTimeout != 3*time.Second {
			t.Errorf("Database = %+v", cfg.Database)
		}
		if cfg.Notifier.SMTP.Host != "smtp.example.com" || cfg.Notifier.SMTP.Port != 2525 {
			t.Errorf("SMTP = %+v", cfg.Notifier.SMTP)
		}
		if !cfg.Admin.VerifyForcePaths {
			t.Error("Admin.VerifyForcePaths = false, want true")
		}
	})

	t.Run("Given environment variables When loading Then they win over the file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: \"9090\"\n")
		t.Setenv("TASKTRACK_SERVER_PORT", "7070")
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %q, want 7070", cfg.Server.Port)
		}
		if cfg.Auth.JWTSecret != "s3cret" {
			t.Errorf("Auth.JWTSecret = %q, want s3cret", cfg.Auth.JWTSecret)
		}
	})

	t.Run("Given a missing file When loading Then returns error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Load() expected error for missing file")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) { c.Auth.JWTSecret = "x" }},
		{name: "missing secret", mutate: func(c *Config) {}, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Auth.JWTSecret = "x"; c.Database.Driver = "oracle" }, wantErr: true},
		{name: "webhook without url", mutate: func(c *Config) { c.Auth.JWTSecret = "x"; c.Notifier.Kind = "slack" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
