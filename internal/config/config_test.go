package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTPAddr)
	}
	if cfg.ImportBatchSize != 100 {
		t.Fatalf("unexpected default batch size: %d", cfg.ImportBatchSize)
	}
	if cfg.UploadDir == "" {
		t.Fatalf("expected upload dir fallback")
	}
}

func TestLoadClampsBatchSize(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "100000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ImportBatchSize != 100 {
		t.Fatalf("expected out-of-range batch size clamped to 100, got %d", cfg.ImportBatchSize)
	}
}

func TestLoadDatabaseDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "registry")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dsn := cfg.Database.ConnectionString()
	want := "host=db.internal port=5432 dbname=registry user=postgres password=postgres sslmode=disable"
	if dsn != want {
		t.Fatalf("unexpected DSN: %s", dsn)
	}
}
