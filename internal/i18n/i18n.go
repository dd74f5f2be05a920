// Package i18n resolves localized strings from a language → key → value
// table. Values are either strings with {placeholder} markers or ordered
// string lists such as month names.
package i18n

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
)

// DefaultLanguage is used when a key is missing in the current language.
const DefaultLanguage = "en"

// SupportedLanguages lists the languages shipped in the embedded table.
var SupportedLanguages = []string{"pt-BR", "en", "es"}

//go:embed translations.json
var embedded []byte

type value struct {
	text   string
	list   []string
	isList bool
}

func (v *value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.text = s
		return nil
	}
	var l []string
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("translation value must be a string or a string array: %w", err)
	}
	v.list = l
	v.isList = true
	return nil
}

// Table maps language code → key → value.
type Table map[string]map[string]value

// Parse decodes a translation document.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing translations: %w", err)
	}
	return t, nil
}

// Embedded returns the translation table compiled into the binary.
func Embedded() Table {
	t, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return t
}

// Fetch loads a translation document from an http(s) URL or a file path.
// An empty source yields the embedded table.
func Fetch(ctx context.Context, source string) (Table, error) {
	if source == "" {
		return Embedded(), nil
	}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading translations %s: %w", source, err)
		}
		return Parse(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching translations %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching translations %s: HTTP %d", source, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("fetching translations %s: expected JSON, received %q", source, ct)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading translations body: %w", err)
	}
	return Parse(data)
}

// Result is the outcome of a lookup. Resolved is false when the key was not
// found in either the current or the default language and Text holds the
// key itself.
type Result struct {
	Text     string
	List     []string
	Resolved bool
	Language string
}

// Translator looks up keys in the current language with fallback to
// DefaultLanguage and then to the key.
type Translator struct {
	lang  string
	table Table

	mu      sync.Mutex
	missing map[string]struct{}
}

// New returns a Translator for lang over table.
func New(table Table, lang string) *Translator {
	if table == nil {
		table = Table{}
	}
	return &Translator{lang: lang, table: table, missing: map[string]struct{}{}}
}

// Load fetches source and returns a Translator for lang. When fetching
// fails the returned Translator falls back to the embedded table and the
// error is returned alongside it so callers can notify the user.
func Load(ctx context.Context, source, lang string) (*Translator, error) {
	t, err := Fetch(ctx, source)
	if err != nil {
		logger.Warn("loading translations failed, using built-in table", "source", source, "err", err)
		return New(Embedded(), lang), err
	}
	return New(t, lang), nil
}

// Language returns the current language code.
func (t *Translator) Language() string {
	return t.lang
}

// Lookup resolves key in the current language.
func (t *Translator) Lookup(key string, params map[string]string) Result {
	return t.LookupIn(t.lang, key, params)
}

// LookupIn resolves key in lang, falling back to DefaultLanguage.
func (t *Translator) LookupIn(lang, key string, params map[string]string) Result {
	for _, l := range []string{lang, DefaultLanguage} {
		v, ok := t.table[l][key]
		if !ok {
			continue
		}
		if v.isList {
			return Result{List: v.list, Resolved: true, Language: l}
		}
		return Result{Text: Replace(v.text, params), Resolved: true, Language: l}
	}

	t.mu.Lock()
	_, seen := t.missing[key]
	t.missing[key] = struct{}{}
	t.mu.Unlock()
	if !seen {
		logger.Warn("translation key not found", "key", key, "lang", lang)
	}
	return Result{Text: key}
}

// T returns the resolved text for key, or the key itself.
func (t *Translator) T(key string, params map[string]string) string {
	return t.Lookup(key, params).Text
}

// List returns the list value of key, or nil when key is missing or not a list.
func (t *Translator) List(key string) []string {
	return t.Lookup(key, nil).List
}

// Replace substitutes every {name} in text with params[name].
func Replace(text string, params map[string]string) string {
	for k, v := range params {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// DetectLanguage picks a supported language for a locale such as "pt_BR" or
// "es-MX": exact match first, then base language, then the first supported
// language sharing the base, then DefaultLanguage.
func DetectLanguage(locale string) string {
	full := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if i := strings.IndexByte(full, '.'); i >= 0 {
		full = full[:i] // drop POSIX encoding suffix such as ".UTF-8"
	}
	if tag, err := language.Parse(full); err == nil {
		full = tag.String()
	}
	base := full
	if b, _, ok := strings.Cut(full, "-"); ok {
		base = b
	}

	for _, l := range SupportedLanguages {
		if strings.EqualFold(l, full) {
			return l
		}
	}
	for _, l := range SupportedLanguages {
		if strings.EqualFold(l, base) {
			return l
		}
	}
	if base != "" {
		for _, l := range SupportedLanguages {
			if strings.HasPrefix(strings.ToLower(l), strings.ToLower(base)) {
				return l
			}
		}
	}
	return DefaultLanguage
}
