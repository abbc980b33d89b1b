package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian", "italiano"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code to ISO 639-1 (2-letter).
// Unrecognized 2-letter codes pass through; anything else yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

func split(tag string) (string, string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "_", "-")
	base, region, _ := strings.Cut(tag, "-")
	return base, region
}

// Normalize lower-cases tag, maps its base to ISO 639-1 when recognized, and
// keeps any region: "FRE_CA" becomes "fr-ca", "english" becomes "en".
func Normalize(tag string) string {
	base, region := split(tag)
	if base == "" {
		return ""
	}
	if mapped := ToISO2(base); mapped != "" {
		base = mapped
	}
	if region == "" {
		return base
	}
	return base + "-" + region
}

// Base returns the normalized language without its region.
func Base(tag string) string {
	base, _ := split(Normalize(tag))
	return base
}

// Matches reports whether tag satisfies want. A want without region accepts
// any region of the same language; a regional want must match exactly.
func Matches(tag, want string) bool {
	tag, want = Normalize(tag), Normalize(want)
	if tag == "" || want == "" {
		return false
	}
	if tag == want {
		return true
	}
	if strings.Contains(want, "-") {
		return false
	}
	return Base(tag) == want
}

// DisplayName returns a human-readable language name for any recognized code.
// Regional tags keep their region in parentheses. Returns "Unknown" for empty
// input, or the uppercased tag for unrecognized input.
func DisplayName(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return "Unknown"
	}
	base, region := split(tag)
	e := lookup(base)
	if e == nil {
		return strings.ToUpper(strings.TrimSpace(tag))
	}
	if region != "" {
		return e.display + " (" + strings.ToUpper(region) + ")"
	}
	return e.display
}

// NormalizeList normalizes and deduplicates language tags, keeping order.
func NormalizeList(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		value := Normalize(tag)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}
	return normalized
}
