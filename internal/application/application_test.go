package application

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/cloud-it/template-app-configurator/internal/config"
	"github.com/cloud-it/template-app-configurator/internal/report"
	"github.com/cloud-it/template-app-configurator/internal/storage"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testConfig() config.ProjectConfig {
	cfg := config.Defaults()
	cfg.Project.Name = "acme-portal"
	cfg.Project.DisplayName = "Acme Portal"
	cfg.Project.Subtitle = "PORTAL"
	cfg.Branding.Name = "Acme"
	cfg.Domain.Base = "acme.example.com"
	cfg.Domain.BaseURL = "https://acme.example.com"
	cfg.Database.NameSuffix = "acme"
	return cfg
}

func templateFiles() map[string]string {
	return map[string]string{
		"app/pages/index.tsx":                    "<h1>Template App</h1>",
		"app/pages/admin.tsx":                    "<h1>CloudAcademy admin</h1>",
		"app/pages/signin.tsx":                   "<p>Sign in to Template</p>",
		"app/components/AuthenticatedHeader.tsx": "<span>PROYECTS</span>",
		"terraform/backend/variables.tf":         `default = "proyecto_template"`,
		"terraform/backend/main.tf":              `name = "template-app-api"`,
		"terraform/frontend/variables.tf":        `default = "https://template.cloud-it.com.ar"`,
		"terraform/frontend/main.tf":             `bucket = "template-app-web"`,
	}
}

func newApp(t *testing.T, fsys storage.FileSystem, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	app, err := New(testConfig(), fsys, zaptest.NewLogger(t), opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return app
}

func TestRunAppliesConfiguration(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemoryFileSystem(templateFiles())
	var out bytes.Buffer

	summary, err := newApp(t, mem).Run(&out)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Counts[report.StatusUpdated] != 8 || summary.Counts[report.StatusGenerated] != 3 {
		t.Fatalf("unexpected counts %v", summary.Counts)
	}

	checks := map[string]string{
		"app/pages/index.tsx":                "<h1>Acme App</h1>",
		"terraform/backend/variables.tf":     `default = "proyecto_acme"`,
		"terraform/frontend/main.tf":         `bucket = "acme-portal-web"`,
		"terraform/backend/terraform.tfvars": `db_name = "proyecto_acme"`,
		"app/config/app.config.js":           "name: 'Acme',",
	}
	for name, want := range checks {
		content, ok := mem.Content(name)
		if !ok || !strings.Contains(content, want) {
			t.Fatalf("%s: expected %q, got %q", name, want, content)
		}
	}

	if !strings.Contains(out.String(), "8 updated, 0 unchanged, 0 skipped, 3 generated, 0 failed") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestRunToleratesMissingFiles(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemoryFileSystem(map[string]string{
		"app/pages/index.tsx": "<h1>Template</h1>",
	})

	summary, err := newApp(t, mem).Run(nil)
	if err != nil {
		t.Fatalf("missing files must not fail the run: %v", err)
	}
	if summary.Counts[report.StatusSkipped] != 7 {
		t.Fatalf("expected 7 skipped files, got %v", summary.Counts)
	}
	if summary.Failed() {
		t.Fatalf("summary must not be failed")
	}
}

func TestRunPropagatesFailuresAndContinues(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemoryFileSystem(templateFiles())
	mem.FailWrite("terraform/backend/main.tf", fs.ErrPermission)

	var out bytes.Buffer
	summary, err := newApp(t, mem).Run(&out)
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected permission error in chain, got %v", err)
	}

	if summary.Counts[report.StatusFailed] != 1 {
		t.Fatalf("expected one failure, got %v", summary.Counts)
	}
	if summary.Counts[report.StatusUpdated] != 7 || summary.Counts[report.StatusGenerated] != 3 {
		t.Fatalf("independent files must still be processed, got %v", summary.Counts)
	}
	if content, _ := mem.Content("terraform/frontend/main.tf"); content != `bucket = "acme-portal-web"` {
		t.Fatalf("file after the failure was not processed: %q", content)
	}
	if !strings.Contains(out.String(), "failed    terraform/backend/main.tf") {
		t.Fatalf("failure missing from report:\n%s", out.String())
	}
}

func TestRunDryRunLeavesFilesUntouched(t *testing.T) {
	t.Parallel()

	files := templateFiles()
	mem := storage.NewMemoryFileSystem(files)

	var out bytes.Buffer
	summary, err := newApp(t, mem, WithDryRun(true)).Run(&out)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !summary.DryRun || summary.Counts[report.StatusUpdated] != 8 {
		t.Fatalf("unexpected dry-run summary %+v", summary.Counts)
	}
	for name, original := range files {
		if content, _ := mem.Content(name); content != original {
			t.Fatalf("dry run modified %s", name)
		}
	}
	if _, ok := mem.Content("README.md"); ok {
		t.Fatalf("dry run must not generate artifacts")
	}
	if !strings.Contains(out.String(), "dry run: no files were written") {
		t.Fatalf("expected dry-run notice:\n%s", out.String())
	}
}

func TestRunOnDisk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for name, content := range templateFiles() {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	app := newApp(t, storage.NewDirFileSystem(root))
	if _, err := app.Run(nil); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}

	summary, err := app.Run(nil)
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if summary.Counts[report.StatusUnchanged] != 8 || summary.Counts[report.StatusGenerated] != 3 {
		t.Fatalf("expected rewrites to be idempotent, got %v", summary.Counts)
	}

	data, err := os.ReadFile(filepath.Join(root, "app", "config", "app.config.js"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(data), "baseUrl: 'https://acme.example.com',") {
		t.Fatalf("unexpected artifact:\n%s", data)
	}
}

func TestNewRequiresFileSystem(t *testing.T) {
	t.Parallel()

	if _, err := New(testConfig(), nil, zaptest.NewLogger(t)); !errors.Is(err, ErrNoFileSystem) {
		t.Fatalf("expected ErrNoFileSystem, got %v", err)
	}
}

func TestResolveProjectRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"app/pages", "terraform/backend"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	got, err := ResolveProjectRoot(filepath.Join(root, "terraform", "backend"))
	if err != nil {
		t.Fatalf("ResolveProjectRoot returned error: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveProjectRootUnknownTarget(t *testing.T) {
	t.Parallel()

	if _, err := ResolveProjectRoot(t.TempDir()); err == nil {
		t.Fatalf("expected error outside a project")
	}
}
