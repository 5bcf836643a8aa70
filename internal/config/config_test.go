package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("unexpected api port %d", cfg.API.Port)
	}
	if cfg.Database.Name != "bizcard" {
		t.Fatalf("unexpected database name %q", cfg.Database.Name)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr())
	}
	if cfg.Suggest.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected suggest model %q", cfg.Suggest.Model)
	}
	if cfg.Worker.Concurrency != 5 {
		t.Fatalf("unexpected worker concurrency %d", cfg.Worker.Concurrency)
	}
	if cfg.Scan.Enabled {
		t.Fatal("scan must default to disabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("WORKER_CONCURRENCY", "2")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Fatalf("unexpected api port %d", cfg.API.Port)
	}
	if cfg.Worker.Concurrency != 2 {
		t.Fatalf("unexpected worker concurrency %d", cfg.Worker.Concurrency)
	}
	origins := cfg.API.AllowedOriginList()
	if len(origins) != 2 || origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative api port")
	}
}

func TestLoadRejectsInvalidWorkerConcurrency(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKER_CONCURRENCY", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive worker concurrency")
	}
}
