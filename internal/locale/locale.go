package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the languages replies and commands are available in
type Language string

const (
	Portuguese Language = "pt"
	English    Language = "en"
	Spanish    Language = "es"
)

// Fallback is used when a tag names an unsupported language
const Fallback = English

// Supported lists the languages in display order
var Supported = []Language{Portuguese, English, Spanish}

var voiceLocales = map[Language]string{
	Portuguese: "pt-BR",
	English:    "en-US",
	Spanish:    "es-ES",
}

// Parse maps a BCP 47 tag or a POSIX locale such as "pt_BR.UTF-8" to a
// supported language, falling back to English
func Parse(tag string) Language {
	t, ok := parseTag(tag)
	if !ok {
		return Fallback
	}

	base, _ := t.Base()
	switch Language(base.String()) {
	case Portuguese:
		return Portuguese
	case Spanish:
		return Spanish
	default:
		return Fallback
	}
}

// VoiceLocale returns the locale the speech hosts are asked to use
func (l Language) VoiceLocale() string {
	if v, ok := voiceLocales[l]; ok {
		return v
	}
	return voiceLocales[Fallback]
}

// AcceptLanguage returns an Accept-Language header value preferring l
func (l Language) AcceptLanguage() string {
	locale := l.VoiceLocale()
	base, _, _ := strings.Cut(locale, "-")
	return locale + "," + base + ";q=0.9"
}

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	_, ok := voiceLocales[l]
	return ok
}

// Unit is a distance unit for spoken and displayed distances
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "miles"
)

const kmPerMile = 1.609344

// Units returns the customary unit for a region code
func Units(region string) Unit {
	switch strings.ToUpper(strings.TrimSpace(region)) {
	case "US", "GB":
		return Miles
	default:
		return Kilometers
	}
}

// Convert expresses a distance in kilometers in unit u
func (u Unit) Convert(km float64) float64 {
	if u == Miles {
		return km / kmPerMile
	}
	return km
}

// Profile is the language and unit preference derived from a locale tag
type Profile struct {
	Language Language `json:"language"`
	Country  string   `json:"country"`
	Units    Unit     `json:"units"`
}

// Detect builds a profile from a tag such as the LANG environment variable.
// A tag without a region is treated as US.
func Detect(tag string) Profile {
	country := "US"
	if t, ok := parseTag(tag); ok {
		if region, conf := t.Region(); conf == language.Exact {
			country = region.String()
		}
	}

	return Profile{
		Language: Parse(tag),
		Country:  country,
		Units:    Units(country),
	}
}

func parseTag(tag string) (language.Tag, bool) {
	tag, _, _ = strings.Cut(strings.TrimSpace(tag), ".")
	tag = strings.ReplaceAll(tag, "_", "-")
	if tag == "" || tag == "C" || tag == "POSIX" {
		return language.Und, false
	}

	t, err := language.Parse(tag)
	if err != nil {
		return language.Und, false
	}
	return t, true
}
