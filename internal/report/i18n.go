package report

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Language is a report locale code.
type Language string

const (
	LangEnglish Language = "en"
	LangGerman  Language = "de"
)

// ErrUnsupportedLanguage is returned for locale codes without a catalog.
var ErrUnsupportedLanguage = errors.New("report: unsupported language")

//go:embed en.json de.json
var localeFS embed.FS

var (
	catalogOnce sync.Once
	catalogs    map[Language]map[string]string
	catalogErr  error
)

func loadCatalogs() (map[Language]map[string]string, error) {
	catalogOnce.Do(func() {
		catalogs = make(map[Language]map[string]string)
		for _, lang := range []Language{LangEnglish, LangGerman} {
			data, err := localeFS.ReadFile(string(lang) + ".json")
			if err != nil {
				catalogErr = fmt.Errorf("report: load locale %s: %w", lang, err)
				return
			}
			var parsed map[string]string
			if err := json.Unmarshal(data, &parsed); err != nil {
				catalogErr = fmt.Errorf("report: parse locale %s: %w", lang, err)
				return
			}
			catalogs[lang] = parsed
		}
	})
	return catalogs, catalogErr
}

// Labels resolves report strings for one language, falling back to
// English and then to the key itself.
type Labels struct {
	lang     Language
	primary  map[string]string
	fallback map[string]string
}

// NewLabels returns the catalog for lang.
func NewLabels(lang Language) (Labels, error) {
	all, err := loadCatalogs()
	if err != nil {
		return Labels{}, err
	}
	primary, ok := all[lang]
	if !ok {
		return Labels{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return Labels{lang: lang, primary: primary, fallback: all[LangEnglish]}, nil
}

func (l Labels) Lang() Language {
	return l.lang
}

// T returns the string for key.
func (l Labels) T(key string) string {
	if v, ok := l.primary[key]; ok {
		return v
	}
	if v, ok := l.fallback[key]; ok {
		return v
	}
	return key
}

func (l Labels) Format(key string, args ...interface{}) string {
	return fmt.Sprintf(l.T(key), args...)
}

// ParseLanguage maps a flag value to a supported language.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "en-us", "en-gb", "english":
		return LangEnglish, nil
	case "de", "de-de", "de-at", "de-ch", "german", "deutsch":
		return LangGerman, nil
	}
	return LangEnglish, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, s)
}
