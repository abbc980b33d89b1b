package textutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fallback is returned when sanitization leaves nothing behind.
const Fallback = "unnamed"

// fileNameReplacer swaps characters that are unsafe on common filesystems for
// their fullwidth look-alikes so titles stay readable.
var fileNameReplacer = strings.NewReplacer(
	"<", "＜",
	">", "＞",
	":", "：",
	"\"", "＂",
	"/", "／",
	"\\", "＼",
	"|", "｜",
	"?", "？",
	"*", "＊",
)

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName returns a filename component that is safe on Linux, macOS,
// and Windows. The result is NFC-normalized and at most maxLen runes long;
// maxLen <= 0 disables truncation.
func SanitizeFileName(name string, maxLen int) string {
	name = norm.NFC.String(name)
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimRight(name, ".")
	name = strings.TrimSpace(name)

	if _, reserved := reservedNames[strings.ToUpper(name)]; reserved {
		name += "_file"
	}

	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		name = strings.TrimSpace(string([]rune(name)[:maxLen]))
	}

	if name == "" {
		return Fallback
	}
	return name
}

func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f) || r == utf8.RuneError
}

// IsSafeFileName reports whether name would survive SanitizeFileName unchanged
// for the given length limit.
func IsSafeFileName(name string, maxLen int) bool {
	return name != "" && SanitizeFileName(name, maxLen) == name
}

// NormalizeTitle collapses whitespace in a chapter title and optionally applies
// title casing.
func NormalizeTitle(title string, titleCase bool) string {
	title = strings.Join(strings.FieldsFunc(norm.NFC.String(title), unicode.IsSpace), " ")
	if titleCase && title != "" {
		title = cases.Title(language.Und, cases.NoLower).String(title)
	}
	return title
}

// ResolveCollision returns path unchanged when exists reports false for it;
// otherwise it tries "stem (2).ext", "stem (3).ext", and so on. It gives up
// after maxAttempts candidates.
func ResolveCollision(path string, exists func(string) bool, maxAttempts int) (string, error) {
	if !exists(path) {
		return path, nil
	}
	stem, ext := splitExt(path)
	for i := 2; i < maxAttempts+2; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", path, maxAttempts)
}

func splitExt(path string) (string, string) {
	slash := strings.LastIndexAny(path, `/\`)
	dot := strings.LastIndex(path, ".")
	if dot <= slash+1 {
		return path, ""
	}
	return path[:dot], path[dot:]
}
