// Package locale holds the closed set of locales the site is published in and
// the fallback rule shared by every locale-partitioned store.
package locale

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported language code such as "en" or "nl".
type Locale string

func (l Locale) String() string { return string(l) }

var (
	ErrEmptyTable     = errors.New("locale table needs at least one locale")
	ErrUnsupported    = errors.New("unsupported locale")
	ErrDefaultMissing = errors.New("default locale is not in the supported set")
)

// Table is the process-wide locale configuration. It is immutable after
// NewTable returns and safe for concurrent use.
type Table struct {
	supported []Locale
	set       map[Locale]struct{}
	def       Locale
	icons     map[Locale]string
	matcher   language.Matcher
	// matched[i] is the locale for the i-th tag handed to the matcher
	matched []Locale
}

// NewTable validates codes and builds a Table. icons maps a locale code to the
// flag image shown next to it in the admin UI; missing entries get a default path.
func NewTable(codes []string, defaultCode string, icons map[string]string) (*Table, error) {
	if len(codes) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		set:   make(map[Locale]struct{}, len(codes)),
		icons: make(map[Locale]string, len(codes)),
	}
	for _, code := range codes {
		l, err := canonical(code)
		if err != nil {
			return nil, err
		}
		if _, dup := t.set[l]; dup {
			return nil, fmt.Errorf("duplicate locale %q", l)
		}
		t.set[l] = struct{}{}
		t.supported = append(t.supported, l)
	}

	def, err := canonical(defaultCode)
	if err != nil {
		return nil, err
	}
	if _, ok := t.set[def]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefaultMissing, def)
	}
	t.def = def

	for code, icon := range icons {
		l, err := canonical(code)
		if err != nil {
			return nil, err
		}
		if _, ok := t.set[l]; !ok {
			return nil, fmt.Errorf("%w: icon for %q", ErrUnsupported, l)
		}
		t.icons[l] = icon
	}

	// the first tag is what the matcher falls back to
	tags := []language.Tag{language.Make(def.String())}
	t.matched = []Locale{def}
	for _, l := range t.supported {
		if l == def {
			continue
		}
		tags = append(tags, language.Make(l.String()))
		t.matched = append(t.matched, l)
	}
	t.matcher = language.NewMatcher(tags)

	return t, nil
}

func canonical(code string) (Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, code)
	}
	return Locale(tag.String()), nil
}

// Default returns the designated default locale.
func (t *Table) Default() Locale { return t.def }

// Supported returns the configured locales in declaration order.
func (t *Table) Supported() []Locale {
	out := make([]Locale, len(t.supported))
	copy(out, t.supported)
	return out
}

// Contains reports whether l is one of the supported locales.
func (t *Table) Contains(l Locale) bool {
	_, ok := t.set[l]
	return ok
}

// Parse turns user input into a supported Locale. "NL" and "nl-BE" both
// resolve to "nl" when only "nl" is configured.
func (t *Table) Parse(s string) (Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	if l := Locale(tag.String()); t.Contains(l) {
		return l, nil
	}
	base, _ := tag.Base()
	if l := Locale(base.String()); t.Contains(l) {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Icon returns the flag image path for l.
func (t *Table) Icon(l Locale) string {
	if icon, ok := t.icons[l]; ok {
		return icon
	}
	return "/flags/" + l.String() + ".svg"
}

// Match negotiates an Accept-Language header value against the table and
// returns the default locale when nothing matches.
func (t *Table) Match(acceptLanguage string) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.def
	}
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.def
	}
	return t.matched[index]
}

// Filter keeps the supported locales of ls, dropping duplicates. The second
// value lists the codes that were rejected.
func (t *Table) Filter(ls []Locale) ([]Locale, []Locale) {
	seen := make(map[Locale]struct{}, len(ls))
	var kept, rejected []Locale
	for _, l := range ls {
		if !t.Contains(l) {
			rejected = append(rejected, l)
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		kept = append(kept, l)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })
	return kept, rejected
}

// Resolve picks the variant for requested, falling back to the fallback
// locale. It returns the locale the value came from and false when neither
// variant exists.
func Resolve[V any](variants map[Locale]V, requested, fallback Locale) (V, Locale, bool) {
	if v, ok := variants[requested]; ok {
		return v, requested, true
	}
	if v, ok := variants[fallback]; ok {
		return v, fallback, true
	}
	var zero V
	return zero, "", false
}
