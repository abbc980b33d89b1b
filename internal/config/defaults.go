package config

const (
	defaultConfigPath          = "~/.config/chaptersplit/config.toml"
	defaultOutDir              = "./output"
	defaultWorkDir             = "./cache"
	defaultCRF                 = 18
	defaultPreset              = "veryfast"
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultVideoFormat         = "mp4"
	defaultHardwareEncoder     = "h264_nvenc"
	defaultHardwarePreset      = "p4"
	defaultHardwareCQ          = 23
	defaultToleranceSeconds    = 0.15
	defaultMaxRetries          = 1
	defaultCutTimeoutSeconds   = 300
	defaultProbeTimeoutSeconds = 30
	defaultMaxWorkers          = 2
	maxWorkersLimit            = 8
	defaultNamingTemplate      = "{n:02d} - {title}"
	defaultSanitizeMaxLen      = 120
	defaultDirTitleMaxLen      = 50
	defaultCropMinWidth        = 640
	defaultCropMinHeight       = 480
	defaultMinDurationMS       = 300
	defaultQuality             = "1080p"
	defaultMaxHeight           = 1080
	defaultDownloadFormat      = "bestvideo+bestaudio/best"
	defaultCookiesFile         = "cookies.txt"
	defaultDownloadTimeout     = 1800
	defaultMetadataTimeout     = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// SoftwarePresets lists the libx264 presets from fastest to slowest.
var SoftwarePresets = []string{
	"ultrafast",
	"superfast",
	"veryfast",
	"faster",
	"fast",
	"medium",
	"slow",
	"slower",
	"veryslow",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutDir:  defaultOutDir,
			WorkDir: defaultWorkDir,
		},
		Encoding: Encoding{
			CRF:          defaultCRF,
			Preset:       defaultPreset,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
			VideoFormat:  defaultVideoFormat,
		},
		Hardware: Hardware{
			Enabled: true,
			Encoder: defaultHardwareEncoder,
			Preset:  defaultHardwarePreset,
			CQ:      defaultHardwareCQ,
		},
		Validation: Validation{
			ToleranceSeconds:    defaultToleranceSeconds,
			MaxRetries:          defaultMaxRetries,
			CutTimeoutSeconds:   defaultCutTimeoutSeconds,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Parallel: Parallel{
			MaxWorkers: defaultMaxWorkers,
		},
		Naming: Naming{
			Template:       defaultNamingTemplate,
			SanitizeMaxLen: defaultSanitizeMaxLen,
			DirTitleMaxLen: defaultDirTitleMaxLen,
		},
		Crop: Crop{
			MinWidth:  defaultCropMinWidth,
			MinHeight: defaultCropMinHeight,
		},
		Subtitles: Subtitles{
			Enabled:        true,
			MinDurationMS:  defaultMinDurationMS,
			Languages:      []string{"fr", "en"},
			FormatPriority: []string{"srt", "vtt"},
			AutoDownload:   true,
			PreferManual:   true,
			FallbackToAuto: true,
			PlayerClients:  []string{"web", "web_safari", "android"},
		},
		Download: Download{
			Quality:                defaultQuality,
			Format:                 defaultDownloadFormat,
			CookiesFile:            defaultCookiesFile,
			Browsers:               []string{"firefox", "chrome", "edge"},
			TimeoutSeconds:         defaultDownloadTimeout,
			MetadataTimeoutSeconds: defaultMetadataTimeout,
		},
		Run: Run{
			SkipExisting: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
