package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"weddingtimeline/internal/config"
	"weddingtimeline/internal/timeline"
)

func TestNew_MemoryStorage(t *testing.T) {
	cfg := &config.Config{Timeline: config.TimelineConfig{Storage: config.StorageMemory, LookaheadMonths: 12}}
	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Publisher != nil || app.Redis != nil {
		t.Fatalf("memory mode opened external connections")
	}
	if app.Memory == nil || app.Tasks == nil || app.Activator == nil {
		t.Fatalf("components not wired")
	}

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	app.Memory.PutClient(timeline.ClientContext{ClientID: "c1", TenantID: "t1", EventDate: now.AddDate(0, 11, 0)})
	summary, err := app.Activator.RunAll(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Clients != 1 || summary.Materialized == 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	dir := t.TempDir()
	categories := filepath.Join(dir, "categories.yaml")
	doc := "categories:\n  - label: Flowers\n    priority: 1\n    keywords: [florist, bouquet]\n"
	if err := os.WriteFile(categories, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, classifier, err := loadCatalog(config.TimelineConfig{CategoriesPath: categories})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := classifier.Classify("Call the florist"); got != "Flowers" {
		t.Fatalf("classify = %q", got)
	}

	if _, _, err := loadCatalog(config.TimelineConfig{CatalogPath: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}
