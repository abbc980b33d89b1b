package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output, cache, and log directories.
type Paths struct {
	OutDir  string `toml:"out_dir"`
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Encoding contains the software (libx264) encoding profile and container.
type Encoding struct {
	CRF          int    `toml:"crf"`
	Preset       string `toml:"preset"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
	VideoFormat  string `toml:"video_format"`
}

// Hardware contains the hardware encoder profile used when available.
type Hardware struct {
	Enabled bool   `toml:"enabled"`
	Encoder string `toml:"encoder"`
	Preset  string `toml:"preset"`
	CQ      int    `toml:"cq"`
}

// Validation contains cut verification settings.
type Validation struct {
	ToleranceSeconds    float64 `toml:"tolerance_seconds"`
	MaxRetries          int     `toml:"max_retries"`
	CutTimeoutSeconds   int     `toml:"cut_timeout_seconds"`
	ProbeTimeoutSeconds int     `toml:"probe_timeout_seconds"`
}

// Parallel controls the cut worker pool.
type Parallel struct {
	MaxWorkers int `toml:"max_workers"`
}

// Naming controls output file names.
type Naming struct {
	Template       string `toml:"template"`
	SanitizeMaxLen int    `toml:"sanitize_maxlen"`
	DirTitleMaxLen int    `toml:"dir_title_maxlen"`
	TitleCase      bool   `toml:"title_case"`
}

// Crop describes an optional margin crop applied to every segment.
type Crop struct {
	Enabled   bool `toml:"enabled"`
	Top       int  `toml:"top"`
	Bottom    int  `toml:"bottom"`
	Left      int  `toml:"left"`
	Right     int  `toml:"right"`
	MinWidth  int  `toml:"min_width"`
	MinHeight int  `toml:"min_height"`
}

// Subtitles contains subtitle discovery and slicing settings.
type Subtitles struct {
	Enabled        bool     `toml:"enabled"`
	OffsetSeconds  float64  `toml:"offset_seconds"`
	MinDurationMS  int      `toml:"min_duration_ms"`
	Languages      []string `toml:"languages"`
	FormatPriority []string `toml:"format_priority"`
	AutoDownload   bool     `toml:"auto_download"`
	PreferManual   bool     `toml:"prefer_manual"`
	FallbackToAuto bool     `toml:"fallback_to_auto"`
	ExternalPath   string   `toml:"external_path"`
	SearchDirs     []string `toml:"search_dirs"`
	PlayerClients  []string `toml:"player_clients"`
}

// Download contains yt-dlp acquisition settings.
type Download struct {
	Quality                string   `toml:"quality"`
	Format                 string   `toml:"format"`
	CookiesFile            string   `toml:"cookies_file"`
	Browsers               []string `toml:"browsers"`
	TimeoutSeconds         int      `toml:"timeout_seconds"`
	MetadataTimeoutSeconds int      `toml:"metadata_timeout_seconds"`
}

// Run contains per-invocation behaviour switches.
type Run struct {
	SkipExisting bool `toml:"skip_existing"`
	DryRun       bool `toml:"dry_run"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for chaptersplit.
//
// Configuration sections by subsystem:
//   - Paths: output, cache, and log directories
//   - Encoding: software encoding profile and container format
//   - Hardware: NVENC profile used when the encoder is available
//   - Validation: duration tolerance, retries, and subprocess timeouts
//   - Parallel: cut worker pool width
//   - Naming: output file template and sanitization limits
//   - Crop: optional margin crop
//   - Subtitles: subtitle discovery, offset, and minimum cue duration
//   - Download: yt-dlp format selection and authentication fallbacks
//   - Run: skip-existing and dry-run switches
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Encoding   Encoding   `toml:"encoding"`
	Hardware   Hardware   `toml:"hardware"`
	Validation Validation `toml:"validation"`
	Parallel   Parallel   `toml:"parallel"`
	Naming     Naming     `toml:"naming"`
	Crop       Crop       `toml:"crop"`
	Subtitles  Subtitles  `toml:"subtitles"`
	Download   Download   `toml:"download"`
	Run        Run        `toml:"run"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chaptersplit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and work directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutDir, c.Paths.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", c.Paths.LogDir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for cutting.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YtDlpBinary returns the yt-dlp executable name used for acquisition.
func (c *Config) YtDlpBinary() string {
	return "yt-dlp"
}

// CutTimeout returns the ceiling applied to each ffmpeg cut.
func (c *Config) CutTimeout() time.Duration {
	return time.Duration(c.Validation.CutTimeoutSeconds) * time.Second
}

// ProbeTimeout returns the ceiling applied to each ffprobe query.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Validation.ProbeTimeoutSeconds) * time.Second
}

// MinSubtitleDuration returns the minimum cue length in seconds.
func (c *Config) MinSubtitleDuration() float64 {
	return float64(c.Subtitles.MinDurationMS) / 1000
}

// MaxHeight returns the pixel height encoded in Download.Quality ("1080p"),
// falling back to 1080 when it cannot be parsed.
func (c *Config) MaxHeight() int {
	value := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(c.Download.Quality)), "p")
	height := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return defaultMaxHeight
		}
		height = height*10 + int(r-'0')
	}
	if height <= 0 {
		return defaultMaxHeight
	}
	return height
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
