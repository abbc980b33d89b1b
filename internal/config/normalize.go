package config

import (
	"fmt"
	"os"
	"strings"

	"chaptersplit/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeHardware()
	c.normalizeNaming()
	if err := c.normalizeSubtitles(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CHAPTERSPLIT_OUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CHAPTERSPLIT_WORK_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		c.Paths.OutDir = defaultOutDir
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}

	var err error
	if c.Paths.OutDir, err = expandPath(c.Paths.OutDir); err != nil {
		return fmt.Errorf("paths.out_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.Preset = strings.ToLower(strings.TrimSpace(c.Encoding.Preset))
	if c.Encoding.Preset == "" {
		c.Encoding.Preset = defaultPreset
	}
	c.Encoding.AudioCodec = strings.TrimSpace(c.Encoding.AudioCodec)
	if c.Encoding.AudioCodec == "" {
		c.Encoding.AudioCodec = defaultAudioCodec
	}
	c.Encoding.AudioBitrate = strings.TrimSpace(c.Encoding.AudioBitrate)
	if c.Encoding.AudioBitrate == "" {
		c.Encoding.AudioBitrate = defaultAudioBitrate
	}
	c.Encoding.VideoFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Encoding.VideoFormat)), ".")
	if c.Encoding.VideoFormat == "" {
		c.Encoding.VideoFormat = defaultVideoFormat
	}
}

func (c *Config) normalizeHardware() {
	c.Hardware.Encoder = strings.TrimSpace(c.Hardware.Encoder)
	if c.Hardware.Encoder == "" {
		c.Hardware.Encoder = defaultHardwareEncoder
	}
	c.Hardware.Preset = strings.TrimSpace(c.Hardware.Preset)
	if c.Hardware.Preset == "" {
		c.Hardware.Preset = defaultHardwarePreset
	}
}

func (c *Config) normalizeNaming() {
	if strings.TrimSpace(c.Naming.Template) == "" {
		c.Naming.Template = defaultNamingTemplate
	}
	if c.Naming.DirTitleMaxLen == 0 {
		c.Naming.DirTitleMaxLen = defaultDirTitleMaxLen
	}
}

func (c *Config) normalizeSubtitles() error {
	c.Subtitles.Languages = language.NormalizeList(c.Subtitles.Languages)
	c.Subtitles.FormatPriority = normalizeList(c.Subtitles.FormatPriority, true)
	if len(c.Subtitles.FormatPriority) == 0 {
		c.Subtitles.FormatPriority = []string{"srt", "vtt"}
	}
	c.Subtitles.PlayerClients = normalizeList(c.Subtitles.PlayerClients, false)

	c.Subtitles.ExternalPath = strings.TrimSpace(c.Subtitles.ExternalPath)
	if c.Subtitles.ExternalPath != "" {
		expanded, err := expandPath(c.Subtitles.ExternalPath)
		if err != nil {
			return fmt.Errorf("subtitles.external_path: %w", err)
		}
		c.Subtitles.ExternalPath = expanded
	}

	dirs := make([]string, 0, len(c.Subtitles.SearchDirs))
	for _, dir := range c.Subtitles.SearchDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("subtitles.search_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Subtitles.SearchDirs = dirs
	return nil
}

func (c *Config) normalizeDownload() error {
	c.Download.Quality = strings.ToLower(strings.TrimSpace(c.Download.Quality))
	if c.Download.Quality == "" {
		c.Download.Quality = defaultQuality
	}
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	if value, ok := os.LookupEnv("CHAPTERSPLIT_COOKIES_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Download.CookiesFile = strings.TrimSpace(value)
	}
	c.Download.CookiesFile = strings.TrimSpace(c.Download.CookiesFile)
	if c.Download.CookiesFile != "" {
		expanded, err := expandPath(c.Download.CookiesFile)
		if err != nil {
			return fmt.Errorf("download.cookies_file: %w", err)
		}
		c.Download.CookiesFile = expanded
	}
	c.Download.Browsers = normalizeList(c.Download.Browsers, true)
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func normalizeList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
