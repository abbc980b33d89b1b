package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateHardware(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateParallel(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateCrop(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoding() error {
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 51 {
		return errors.New("encoding.crf must be between 0 and 51")
	}
	if !slices.Contains(SoftwarePresets, c.Encoding.Preset) {
		return fmt.Errorf("encoding.preset %q must be one of %s", c.Encoding.Preset, strings.Join(SoftwarePresets, ", "))
	}
	return nil
}

func (c *Config) validateHardware() error {
	if !c.Hardware.Enabled {
		return nil
	}
	if c.Hardware.CQ < 0 || c.Hardware.CQ > 51 {
		return errors.New("hardware.cq must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.ToleranceSeconds <= 0 {
		return errors.New("validation.tolerance_seconds must be positive")
	}
	if c.Validation.MaxRetries < 0 {
		return errors.New("validation.max_retries must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"validation.cut_timeout_seconds":   c.Validation.CutTimeoutSeconds,
		"validation.probe_timeout_seconds": c.Validation.ProbeTimeoutSeconds,
	})
}

func (c *Config) validateParallel() error {
	if c.Parallel.MaxWorkers < 1 || c.Parallel.MaxWorkers > maxWorkersLimit {
		return fmt.Errorf("parallel.max_workers must be between 1 and %d", maxWorkersLimit)
	}
	return nil
}

func (c *Config) validateNaming() error {
	return ensurePositiveMap(map[string]int{
		"naming.sanitize_maxlen":  c.Naming.SanitizeMaxLen,
		"naming.dir_title_maxlen": c.Naming.DirTitleMaxLen,
	})
}

func (c *Config) validateCrop() error {
	if !c.Crop.Enabled {
		return nil
	}
	for key, value := range map[string]int{
		"crop.top":    c.Crop.Top,
		"crop.bottom": c.Crop.Bottom,
		"crop.left":   c.Crop.Left,
		"crop.right":  c.Crop.Right,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return ensurePositiveMap(map[string]int{
		"crop.min_width":  c.Crop.MinWidth,
		"crop.min_height": c.Crop.MinHeight,
	})
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MinDurationMS < 0 {
		return errors.New("subtitles.min_duration_ms must be >= 0")
	}
	for _, format := range c.Subtitles.FormatPriority {
		switch format {
		case "srt", "vtt":
		default:
			return fmt.Errorf("subtitles.format_priority: unsupported format %q", format)
		}
	}
	if c.Subtitles.Enabled && c.Subtitles.AutoDownload && len(c.Subtitles.Languages) == 0 {
		return errors.New("subtitles.languages must include at least one language when subtitles.auto_download is true")
	}
	return nil
}

func (c *Config) validateDownload() error {
	return ensurePositiveMap(map[string]int{
		"download.timeout_seconds":          c.Download.TimeoutSeconds,
		"download.metadata_timeout_seconds": c.Download.MetadataTimeoutSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
