// Package i18n loads the per-language string tables used by the listing page.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"dirserve/service/listing"
)

//go:embed languages/*.yml
var embedded embed.FS

// codePattern accepts "en", "pt_BR", "zh-Hant"; nothing that could act as a path.
var codePattern = regexp.MustCompile(`^[A-Za-z]{2}([_-][A-Za-z]{2,4})?$`)

// Translations maps message keys to localized strings.
type Translations map[string]string

// Get returns the string for key, or key itself when it is missing.
func (t Translations) Get(key string) string {
	if s, ok := t[key]; ok {
		return s
	}
	return key
}

// Loader reads "<code>.yml" files from a filesystem and caches them.
type Loader struct {
	fsys iofs.FS

	mu    sync.RWMutex
	cache map[string]Translations
}

func NewLoader(fsys iofs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: make(map[string]Translations),
	}
}

// NewDirLoader reads translations from dir on disk.
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir))
}

// Default returns a loader over the translations compiled into the binary.
func Default() *Loader {
	sub, err := iofs.Sub(embedded, "languages")
	if err != nil {
		panic(err)
	}
	return NewLoader(sub)
}

// ValidCode reports whether code is shaped like a language code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Languages lists the codes that have a translation file, sorted.
func (l *Loader) Languages() []string {
	matches, err := iofs.Glob(l.fsys, "*.yml")
	if err != nil {
		return nil
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		code := strings.TrimSuffix(path.Base(m), ".yml")
		if ValidCode(code) {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

// Has reports whether a translation exists for code.
func (l *Loader) Has(code string) bool {
	if !ValidCode(code) {
		return false
	}
	l.mu.RLock()
	_, ok := l.cache[code]
	l.mu.RUnlock()
	if ok {
		return true
	}
	_, err := iofs.Stat(l.fsys, code+".yml")
	return err == nil
}

// Load returns the translations for code. It fails with listing.ErrInvalid
// when code is not a language code and listing.ErrNotFound when there is
// no file for it.
func (l *Loader) Load(code string) (Translations, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: language code %q", listing.ErrInvalid, code)
	}

	l.mu.RLock()
	t, ok := l.cache[code]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}

	data, err := iofs.ReadFile(l.fsys, code+".yml")
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: translation file languages/%s.yml", listing.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read translation %s: %w", code, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse translation %s: %w", code, err)
	}
	t = make(Translations, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			t[key] = v
		case nil, map[string]any, []any:
		default:
			t[key] = fmt.Sprint(v)
		}
	}

	l.mu.Lock()
	l.cache[code] = t
	l.mu.Unlock()
	return t, nil
}
