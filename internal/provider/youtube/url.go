package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"chaptersplit/internal/services"
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	watchHosts = map[string]struct{}{
		"youtube.com":     {},
		"www.youtube.com": {},
		"m.youtube.com":   {},
	}
	shortHosts = map[string]struct{}{
		"youtu.be":     {},
		"www.youtu.be": {},
	}
)

// ValidURL reports whether raw is a YouTube watch or short link carrying an
// 11 character video ID.
func ValidURL(raw string) bool {
	_, err := VideoID(raw)
	return err == nil
}

// VideoID extracts the video ID from a YouTube URL. Invalid URLs yield an
// error wrapping services.ErrValidation.
func VideoID(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", invalidURL(raw)
	}
	host := strings.ToLower(parsed.Host)

	var id string
	if _, ok := shortHosts[host]; ok {
		id = strings.Trim(parsed.Path, "/")
	} else if _, ok := watchHosts[host]; ok {
		values := parsed.Query()["v"]
		if len(values) != 1 {
			return "", invalidURL(raw)
		}
		id = values[0]
	} else {
		return "", invalidURL(raw)
	}
	if !videoIDPattern.MatchString(id) {
		return "", invalidURL(raw)
	}
	return id, nil
}

func invalidURL(raw string) error {
	return fmt.Errorf("%w: invalid YouTube URL %q", services.ErrValidation, raw)
}
