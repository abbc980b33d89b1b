package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"chaptersplit/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if cfg.Paths.OutDir != filepath.Join(cwd, "output") {
		t.Fatalf("unexpected out dir: %q", cfg.Paths.OutDir)
	}
	if cfg.Paths.WorkDir != filepath.Join(cwd, "cache") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Encoding.CRF != 18 || cfg.Encoding.Preset != "veryfast" {
		t.Fatalf("unexpected encoding defaults: %+v", cfg.Encoding)
	}
	if cfg.Validation.ToleranceSeconds != 0.15 {
		t.Fatalf("unexpected tolerance: %v", cfg.Validation.ToleranceSeconds)
	}
	if cfg.Parallel.MaxWorkers != 2 {
		t.Fatalf("unexpected max workers: %d", cfg.Parallel.MaxWorkers)
	}
	if cfg.Naming.Template != "{n:02d} - {title}" {
		t.Fatalf("unexpected naming template: %q", cfg.Naming.Template)
	}
	if cfg.MinSubtitleDuration() != 0.3 {
		t.Fatalf("unexpected min subtitle duration: %v", cfg.MinSubtitleDuration())
	}
	if !cfg.Run.SkipExisting {
		t.Fatal("expected skip_existing enabled by default")
	}
	if cfg.Download.CookiesFile != filepath.Join(cwd, "cookies.txt") {
		t.Fatalf("unexpected cookies file: %q", cfg.Download.CookiesFile)
	}
	if len(cfg.Subtitles.PlayerClients) != 3 || cfg.Subtitles.PlayerClients[0] != "web" {
		t.Fatalf("unexpected player clients: %v", cfg.Subtitles.PlayerClients)
	}
	if cfg.CutTimeout().Minutes() != 5 {
		t.Fatalf("unexpected cut timeout: %v", cfg.CutTimeout())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "chaptersplit.toml")

	type payload struct {
		Paths struct {
			OutDir string `toml:"out_dir"`
		} `toml:"paths"`
		Encoding struct {
			Preset string `toml:"preset"`
			CRF    int    `toml:"crf"`
		} `toml:"encoding"`
		Parallel struct {
			MaxWorkers int `toml:"max_workers"`
		} `toml:"parallel"`
		Subtitles struct {
			Languages []string `toml:"languages"`
		} `toml:"subtitles"`
	}
	custom := payload{}
	custom.Paths.OutDir = filepath.Join(tempDir, "out")
	custom.Encoding.Preset = " Medium "
	custom.Encoding.CRF = 22
	custom.Parallel.MaxWorkers = 4
	custom.Subtitles.Languages = []string{"EN", "en", " de "}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutDir != filepath.Join(tempDir, "out") {
		t.Fatalf("expected out dir override, got %q", cfg.Paths.OutDir)
	}
	if cfg.Encoding.Preset != "medium" {
		t.Fatalf("expected normalized preset, got %q", cfg.Encoding.Preset)
	}
	if cfg.Encoding.CRF != 22 {
		t.Fatalf("expected crf 22, got %d", cfg.Encoding.CRF)
	}
	if cfg.Parallel.MaxWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Parallel.MaxWorkers)
	}
	if strings.Join(cfg.Subtitles.Languages, ",") != "en,de" {
		t.Fatalf("expected deduplicated languages, got %v", cfg.Subtitles.Languages)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "chaptersplit.toml")
	if err := os.WriteFile(configPath, []byte("[encoding]\ncrf_value = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvVarOverridesDirectories(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("CHAPTERSPLIT_OUT_DIR", filepath.Join(tempDir, "env-out"))
	t.Setenv("CHAPTERSPLIT_WORK_DIR", filepath.Join(tempDir, "env-work"))
	t.Setenv("CHAPTERSPLIT_COOKIES_FILE", filepath.Join(tempDir, "jar.txt"))

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutDir != filepath.Join(tempDir, "env-out") {
		t.Errorf("expected out dir from env, got %q", cfg.Paths.OutDir)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "env-work") {
		t.Errorf("expected work dir from env, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Download.CookiesFile != filepath.Join(tempDir, "jar.txt") {
		t.Errorf("expected cookies file from env, got %q", cfg.Download.CookiesFile)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutDir, cfg.Paths.WorkDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Naming.Template != "{n:02d} - {title}" {
		t.Fatalf("unexpected sample template %q", cfg.Naming.Template)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config failed validation: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	mutations := map[string]func(*config.Config){
		"crf":        func(c *config.Config) { c.Encoding.CRF = 60 },
		"preset":     func(c *config.Config) { c.Encoding.Preset = "warp" },
		"tolerance":  func(c *config.Config) { c.Validation.ToleranceSeconds = 0 },
		"retries":    func(c *config.Config) { c.Validation.MaxRetries = -1 },
		"timeout":    func(c *config.Config) { c.Validation.CutTimeoutSeconds = 0 },
		"workers":    func(c *config.Config) { c.Parallel.MaxWorkers = 9 },
		"no workers": func(c *config.Config) { c.Parallel.MaxWorkers = 0 },
		"maxlen":     func(c *config.Config) { c.Naming.SanitizeMaxLen = 0 },
		"crop": func(c *config.Config) {
			c.Crop.Enabled = true
			c.Crop.Left = -4
		},
		"sub format": func(c *config.Config) { c.Subtitles.FormatPriority = []string{"ass"} },
		"languages":  func(c *config.Config) { c.Subtitles.Languages = nil },
		"log format": func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range mutations {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected validation error for %s", name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestMaxHeight(t *testing.T) {
	cfg := config.Default()
	if cfg.MaxHeight() != 1080 {
		t.Fatalf("unexpected default height %d", cfg.MaxHeight())
	}
	cfg.Download.Quality = "720p"
	if cfg.MaxHeight() != 720 {
		t.Fatalf("unexpected height %d", cfg.MaxHeight())
	}
	cfg.Download.Quality = "best"
	if cfg.MaxHeight() != 1080 {
		t.Fatalf("expected fallback height, got %d", cfg.MaxHeight())
	}
}
