package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"chaptersplit/internal/config"
	"chaptersplit/internal/services"
	"chaptersplit/internal/testsupport"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type stubExecutor struct {
	mu      sync.Mutex
	args    [][]string
	respond func(ctx context.Context, args []string) ([]byte, string, error)
}

func (s *stubExecutor) Run(ctx context.Context, _ string, args []string) ([]byte, string, error) {
	s.mu.Lock()
	s.args = append(s.args, slices.Clone(args))
	s.mu.Unlock()
	if s.respond == nil {
		return nil, "", nil
	}
	return s.respond(ctx, args)
}

func (s *stubExecutor) calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.args)
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

var errExit = errors.New("exit status 1")

func newTestClient(t *testing.T, exec *stubExecutor, mutate ...func(*config.Config)) (*Client, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Subtitles.PlayerClients = nil
	for _, fn := range mutate {
		fn(cfg)
	}
	return New(cfg, nil, WithExecutor(exec)), cfg
}

func TestVideoID(t *testing.T) {
	valid := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":             "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s":           "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?feature=share&v=a_b-c123456": "a_b-c123456",
		"https://youtu.be/dQw4w9WgXcQ":                            "dQw4w9WgXcQ",
		"http://www.youtu.be/dQw4w9WgXcQ/":                        "dQw4w9WgXcQ",
	}
	for raw, want := range valid {
		got, err := VideoID(raw)
		if err != nil {
			t.Fatalf("VideoID(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("VideoID(%q) = %q, want %q", raw, got, want)
		}
	}

	invalid := []string{
		"",
		"dQw4w9WgXcQ",
		"https://vimeo.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQextra",
		"ftp://youtu.be/dQw4w9WgXcQ",
	}
	for _, raw := range invalid {
		if _, err := VideoID(raw); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected VideoID(%q) to fail validation, got %v", raw, err)
		}
		if ValidURL(raw) {
			t.Fatalf("ValidURL(%q) = true", raw)
		}
	}
}

func TestAcceptLanguage(t *testing.T) {
	if got := AcceptLanguage([]string{"fr", "en"}); got != "fr-FR,fr;q=1.0,en-US,en;q=0.9" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := AcceptLanguage([]string{"pt-BR", " ", "DE"}); got != "pt-BR,de-US,de;q=0.9" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := AcceptLanguage(nil); got != "" {
		t.Fatalf("expected empty header, got %q", got)
	}
	many := AcceptLanguage([]string{"a1x", "b2x", "c3x", "d4x", "e5x", "f6x"})
	if strings.Contains(many, "f6x") {
		t.Fatalf("expected at most five languages, got %q", many)
	}
}

func TestTimelineConvertsChapters(t *testing.T) {
	exec := &stubExecutor{respond: func(_ context.Context, args []string) ([]byte, string, error) {
		if !slices.Contains(args, "--dump-json") {
			return nil, "", fmt.Errorf("unexpected args %v", args)
		}
		return []byte(`{"id":"dQw4w9WgXcQ","title":"My Video","duration":240,
			"chapters":[
				{"title":"Intro","start_time":0,"end_time":60},
				{"title":"Main","start_time":60,"end_time":180},
				{"title":"Broken","start_time":180,"end_time":180},
				{"title":"","start_time":180,"end_time":240}
			]}`), "", nil
	}}
	client, _ := newTestClient(t, exec)

	timeline, err := client.Timeline(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if timeline.ID != "dQw4w9WgXcQ" || timeline.Title != "My Video" || timeline.URL != testURL || timeline.DurationS != 240 {
		t.Fatalf("unexpected timeline %+v", timeline)
	}
	if len(timeline.Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %+v", timeline.Chapters)
	}
	last := timeline.Chapters[2]
	if last.Index != 3 || last.Title != "Chapter 3" || last.StartS != 180 {
		t.Fatalf("unexpected last chapter %+v", last)
	}
}

func TestTimelineWithoutChaptersSpansVideo(t *testing.T) {
	exec := &stubExecutor{respond: func(context.Context, []string) ([]byte, string, error) {
		return []byte(`{"id":"dQw4w9WgXcQ","title":"Single","duration":95.5}`), "", nil
	}}
	client, _ := newTestClient(t, exec)

	timeline, err := client.Timeline(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(timeline.Chapters) != 1 || timeline.Chapters[0].Title != "Single" || timeline.Chapters[0].EndS != 95.5 {
		t.Fatalf("unexpected chapters %+v", timeline.Chapters)
	}
}

func TestTimelineErrors(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := newTestClient(t, exec)
	if _, err := client.Timeline(context.Background(), "https://example.com/v"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(exec.calls()) != 0 {
		t.Fatal("invalid URL must not run yt-dlp")
	}

	exec.respond = func(context.Context, []string) ([]byte, string, error) {
		return []byte(`{"id":"dQw4w9WgXcQ","title":"Live","duration":0}`), "", nil
	}
	if _, err := client.Timeline(context.Background(), testURL); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected zero duration to fail validation, got %v", err)
	}

	exec.respond = func(context.Context, []string) ([]byte, string, error) {
		return nil, "WARNING: something\nERROR: Private video", errExit
	}
	_, err := client.Timeline(context.Background(), testURL)
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "Private video") {
		t.Fatalf("expected external tool error with stderr detail, got %v", err)
	}

	exec.respond = func(ctx context.Context, _ []string) ([]byte, string, error) {
		<-ctx.Done()
		return nil, "", ctx.Err()
	}
	client.metadataTimeout = 20 * time.Millisecond
	if _, err := client.Timeline(context.Background(), testURL); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRunChain(t *testing.T) {
	var ran []string
	step := func(name string, err error) Strategy {
		return Strategy{Name: name, Run: func(context.Context) (Outcome, error) {
			ran = append(ran, name)
			return Outcome{Stdout: []byte(name)}, err
		}}
	}

	outcome, err := RunChain(context.Background(), "op", []Strategy{step("a", errExit), step("b", nil), step("c", nil)})
	if err != nil {
		t.Fatalf("RunChain returned error: %v", err)
	}
	if outcome.Strategy != "b" || !slices.Equal(ran, []string{"a", "b"}) {
		t.Fatalf("unexpected outcome %+v ran=%v", outcome, ran)
	}

	ran = nil
	_, err = RunChain(context.Background(), "op", []Strategy{step("a", errExit), step("b", services.ErrTimeout)})
	var chain *ChainError
	if !errors.As(err, &chain) || len(chain.Attempts) != 2 {
		t.Fatalf("expected chain error with 2 attempts, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected chain to unwrap to sentinels, got %v", err)
	}
	if chain.Attempts[0].Strategy != "a" || !strings.Contains(chain.Summary(), "b: timeout") {
		t.Fatalf("unexpected attempts %+v", chain.Attempts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran = nil
	if _, err := RunChain(ctx, "op", []Strategy{step("a", nil)}); !errors.Is(err, context.Canceled) || len(ran) != 0 {
		t.Fatalf("expected cancellation before any attempt, got %v ran=%v", err, ran)
	}
}

func TestResilientStrategyOrder(t *testing.T) {
	exec := &stubExecutor{}
	client, cfg := newTestClient(t, exec, func(cfg *config.Config) {
		cfg.Subtitles.PlayerClients = []string{"web", "android"}
		cfg.Download.Browsers = []string{"firefox"}
	})
	if err := os.WriteFile(cfg.Download.CookiesFile, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}

	strategies := client.resilientStrategies([]string{"--list-subs"}, testURL, time.Second)
	var names []string
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	want := []string{
		"web/cookies-file", "web/browser:firefox", "web/user-agent",
		"android/cookies-file", "android/browser:firefox", "android/user-agent",
		"default/cookies-file", "default/browser:firefox", "default/user-agent",
	}
	if !slices.Equal(names, want) {
		t.Fatalf("unexpected strategy order %v", names)
	}

	if _, err := strategies[1].Run(context.Background()); err != nil {
		t.Fatalf("strategy returned error: %v", err)
	}
	args := exec.calls()[0]
	if argValue(args, "--extractor-args") != "youtube:player_client=web" ||
		argValue(args, "--cookies-from-browser") != "firefox" ||
		argValue(args, "--add-header") != "Accept-Language: fr-FR,fr;q=1.0,en-US,en;q=0.9" ||
		args[len(args)-1] != testURL {
		t.Fatalf("unexpected args %q", args)
	}
}

const listSubsOutput = `[youtube] dQw4w9WgXcQ: Downloading webpage
[info] Available automatic captions for dQw4w9WgXcQ:
Language Name                     Formats
en       English                  vtt, ttml, srv3, json3
en-US    English (United States)  vtt
[info] Available subtitles for dQw4w9WgXcQ:
Language Name    Formats
de       German  srt, vtt
xx       Klingon srv1
`

func TestParseListSubs(t *testing.T) {
	got := parseListSubs(listSubsOutput)
	want := map[string][]string{
		"en":    {"vtt", "ttml"},
		"en-US": {"vtt"},
		"de":    {"srt", "vtt"},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected languages %v", got)
	}
	for lang, formats := range want {
		if !slices.Equal(got[lang], formats) {
			t.Fatalf("formats for %s = %v, want %v", lang, got[lang], formats)
		}
	}
}

func TestDownloadSubtitlesFallsBackToAutoCaptions(t *testing.T) {
	outDir := t.TempDir()
	exec := &stubExecutor{respond: func(_ context.Context, args []string) ([]byte, string, error) {
		switch {
		case slices.Contains(args, "--list-subs"):
			return []byte(listSubsOutput), "", nil
		case slices.Contains(args, "--write-auto-subs") && argValue(args, "--sub-langs") == "en":
			target := strings.Replace(argValue(args, "--output"), "%(ext)s", "en.vtt", 1)
			return nil, "", os.WriteFile(target, []byte("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhi\n"), 0o644)
		default:
			return nil, "ERROR: no manual subtitles", errExit
		}
	}}
	client, _ := newTestClient(t, exec)

	path, err := client.DownloadSubtitles(context.Background(), testURL, outDir)
	if err != nil {
		t.Fatalf("DownloadSubtitles returned error: %v", err)
	}
	if path != filepath.Join(outDir, "dQw4w9WgXcQ.en.vtt") {
		t.Fatalf("unexpected path %s", path)
	}

	var attempts []string
	for _, args := range exec.calls()[1:] {
		kind := "manual"
		if slices.Contains(args, "--write-auto-subs") {
			kind = "auto"
		}
		attempts = append(attempts, kind+" "+argValue(args, "--sub-langs")+" "+argValue(args, "--sub-format"))
	}
	want := []string{"manual en vtt", "manual en-US vtt", "auto en vtt"}
	if !slices.Equal(attempts, want) {
		t.Fatalf("unexpected attempt order %v", attempts)
	}
}

func TestDownloadSubtitlesReportsEveryAttempt(t *testing.T) {
	exec := &stubExecutor{respond: func(context.Context, []string) ([]byte, string, error) {
		return nil, "ERROR: unavailable", errExit
	}}
	client, _ := newTestClient(t, exec)

	_, err := client.DownloadSubtitles(context.Background(), testURL, t.TempDir())
	var chain *ChainError
	if !errors.As(err, &chain) {
		t.Fatalf("expected ChainError, got %v", err)
	}
	// No listing: fr/srt manual, fr/srt auto, then the catch-all.
	if len(chain.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d:\n%s", len(chain.Attempts), chain.Summary())
	}
	if !strings.HasPrefix(chain.Attempts[0].Strategy, "manual fr srt default/user-agent") ||
		!strings.HasPrefix(chain.Attempts[2].Strategy, "manual "+catchAllLanguages) {
		t.Fatalf("unexpected attempts:\n%s", chain.Summary())
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestDownloadVideo(t *testing.T) {
	exec := &stubExecutor{}
	client, cfg := newTestClient(t, exec)
	exec.respond = func(_ context.Context, args []string) ([]byte, string, error) {
		if argValue(args, "--format") == "bv*[height<=1080][vcodec^=avc1]+ba/best" {
			return nil, "ERROR: Requested format is not available", errExit
		}
		target := strings.Replace(argValue(args, "--output"), "%(ext)s", argValue(args, "--merge-output-format"), 1)
		return nil, "", os.WriteFile(target, []byte("media"), 0o644)
	}

	path, err := client.DownloadVideo(context.Background(), testURL, false)
	if err != nil {
		t.Fatalf("DownloadVideo returned error: %v", err)
	}
	if path != filepath.Join(cfg.Paths.WorkDir, "dQw4w9WgXcQ.mp4") {
		t.Fatalf("unexpected path %s", path)
	}
	calls := exec.calls()
	if len(calls) != 2 || argValue(calls[1], "--format") != "bv*[height<=1080]+ba/best" {
		t.Fatalf("unexpected calls %q", calls)
	}

	if _, err := client.DownloadVideo(context.Background(), testURL, false); err != nil {
		t.Fatalf("DownloadVideo returned error: %v", err)
	}
	if len(exec.calls()) != 2 {
		t.Fatal("expected existing download to be reused")
	}

	if _, err := client.DownloadVideo(context.Background(), testURL, true); err != nil {
		t.Fatalf("DownloadVideo returned error: %v", err)
	}
	if len(exec.calls()) != 4 {
		t.Fatalf("expected forced redownload, got %d calls", len(exec.calls()))
	}
}

func TestDownloadVideoAllFormatsFail(t *testing.T) {
	exec := &stubExecutor{respond: func(context.Context, []string) ([]byte, string, error) {
		return nil, "ERROR: HTTP Error 403", errExit
	}}
	client, _ := newTestClient(t, exec, func(cfg *config.Config) {
		cfg.Download.Quality = "720p"
	})

	_, err := client.DownloadVideo(context.Background(), testURL, false)
	var chain *ChainError
	if !errors.As(err, &chain) || len(chain.Attempts) != 4 {
		t.Fatalf("expected 4 failed format attempts, got %v", err)
	}
	if chain.Attempts[0].Strategy != "format:bv*[height<=720][vcodec^=avc1]+ba/best" ||
		chain.Attempts[3].Strategy != "format:bestvideo+bestaudio/best" {
		t.Fatalf("unexpected attempts:\n%s", chain.Summary())
	}
}
