package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"chaptersplit/internal/config"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

const (
	listSubsTimeout    = 45 * time.Second
	subtitleTimeout    = 180 * time.Second
	desktopUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
	maxAcceptLanguages = 5
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp interactions.
type Client struct {
	binary          string
	workDir         string
	videoFormat     string
	format          string
	maxHeight       int
	cookiesFile     string
	browsers        []string
	playerClients   []string
	languages       []string
	formatPriority  []string
	preferManual    bool
	fallbackToAuto  bool
	metadataTimeout time.Duration
	downloadTimeout time.Duration
	exec            Executor
	logger          *slog.Logger
}

// New constructs a yt-dlp client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		binary:          cfg.YtDlpBinary(),
		workDir:         cfg.Paths.WorkDir,
		videoFormat:     cfg.Encoding.VideoFormat,
		format:          cfg.Download.Format,
		maxHeight:       cfg.MaxHeight(),
		cookiesFile:     cfg.Download.CookiesFile,
		browsers:        cfg.Download.Browsers,
		playerClients:   cfg.Subtitles.PlayerClients,
		languages:       cfg.Subtitles.Languages,
		formatPriority:  cfg.Subtitles.FormatPriority,
		preferManual:    cfg.Subtitles.PreferManual,
		fallbackToAuto:  cfg.Subtitles.FallbackToAuto,
		metadataTimeout: time.Duration(cfg.Download.MetadataTimeoutSeconds) * time.Second,
		downloadTimeout: time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
		exec:            commandExecutor{},
		logger:          logging.NewComponentLogger(logger, "youtube"),
	}
	if len(client.languages) == 0 {
		client.languages = []string{"fr", "en"}
	}
	if len(client.formatPriority) == 0 {
		client.formatPriority = []string{"srt", "vtt"}
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// run executes yt-dlp once under timeout and classifies failures.
func (c *Client) run(ctx context.Context, timeout time.Duration, args []string) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	c.logger.Debug("yt-dlp command", logging.Any("args", args))

	stdout, stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err == nil {
		return stdout, nil
	}
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: yt-dlp exceeded %s", services.ErrTimeout, timeout)
	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("%w: %s not found in PATH", services.ErrExternalTool, c.binary)
	}
	detail := lastLine(stderr)
	if detail == "" {
		return nil, fmt.Errorf("%w: yt-dlp: %w", services.ErrExternalTool, err)
	}
	return nil, fmt.Errorf("%w: yt-dlp: %w: %s", services.ErrExternalTool, err, detail)
}

type authVariant struct {
	name string
	args []string
}

// authVariants lists the authentication fallbacks in the order they are tried.
func (c *Client) authVariants() []authVariant {
	var variants []authVariant
	if c.cookiesFile != "" && fileutil.NonEmptyFile(c.cookiesFile) {
		variants = append(variants, authVariant{name: "cookies-file", args: []string{"--cookies", c.cookiesFile}})
	}
	for _, browser := range c.browsers {
		variants = append(variants, authVariant{name: "browser:" + browser, args: []string{"--cookies-from-browser", browser}})
	}
	return append(variants, authVariant{name: "user-agent", args: []string{"--user-agent", desktopUserAgent}})
}

// resilientStrategies crosses every player client, plus a final pass without
// one, with every authentication fallback.
func (c *Client) resilientStrategies(base []string, url string, timeout time.Duration) []Strategy {
	var headers []string
	if al := AcceptLanguage(c.languages); al != "" {
		headers = []string{"--add-header", "Accept-Language: " + al}
	}
	clients := append(append([]string(nil), c.playerClients...), "")

	var strategies []Strategy
	for _, client := range clients {
		var clientArgs []string
		clientName := "default"
		if client != "" {
			clientArgs = []string{"--extractor-args", "youtube:player_client=" + client}
			clientName = client
		}
		for _, auth := range c.authVariants() {
			args := make([]string, 0, len(base)+len(headers)+len(clientArgs)+len(auth.args)+1)
			args = append(args, base...)
			args = append(args, headers...)
			args = append(args, clientArgs...)
			args = append(args, auth.args...)
			args = append(args, url)
			strategies = append(strategies, Strategy{
				Name: clientName + "/" + auth.name,
				Run: func(ctx context.Context) (Outcome, error) {
					stdout, err := c.run(ctx, timeout, args)
					return Outcome{Stdout: stdout}, err
				},
			})
		}
	}
	return strategies
}

// AcceptLanguage builds an Accept-Language header value from up to five
// language preferences. Two-letter codes expand to a regional variant plus a
// weighted primary tag.
func AcceptLanguage(languages []string) string {
	var parts []string
	q := 1.0
	count := 0
	for _, lang := range languages {
		if count == maxAcceptLanguages {
			break
		}
		code := strings.TrimSpace(lang)
		if code == "" {
			continue
		}
		count++
		if len(code) == 2 {
			primary := strings.ToLower(code)
			region := "US"
			if primary == "fr" {
				region = "FR"
			}
			parts = append(parts, primary+"-"+region, fmt.Sprintf("%s;q=%.1f", primary, q))
		} else {
			parts = append(parts, code)
		}
		q = max(0.1, q-0.1)
	}
	return strings.Join(parts, ",")
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
