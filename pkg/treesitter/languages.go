package treesitter

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"unsafe"

	forest "github.com/alexaandru/go-sitter-forest"
	"github.com/alexaandru/go-sitter-forest/bash"
	"github.com/alexaandru/go-sitter-forest/c"
	"github.com/alexaandru/go-sitter-forest/c_sharp"
	"github.com/alexaandru/go-sitter-forest/cpp"
	"github.com/alexaandru/go-sitter-forest/css"
	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/html"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/json"
	"github.com/alexaandru/go-sitter-forest/kotlin"
	"github.com/alexaandru/go-sitter-forest/lua"
	"github.com/alexaandru/go-sitter-forest/php"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/ruby"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/toml"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	"github.com/alexaandru/go-sitter-forest/yaml"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"

	"github.com/Enter-tainer/tree-sitter/pkg/levenshtein"
)

// Sentinel errors for grammar lookup.
var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUndetected      = errors.New("could not detect language")
)

// grammars maps grammar names to their tree-sitter GetLanguage functions.
// Names outside this table are looked up in the full forest.
var grammars = map[string]func() unsafe.Pointer{
	"bash":       bash.GetLanguage,
	"c":          c.GetLanguage,
	"c_sharp":    c_sharp.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"css":        css.GetLanguage,
	"go":         golang.GetLanguage,
	"html":       html.GetLanguage,
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"json":       json.GetLanguage,
	"kotlin":     kotlin.GetLanguage,
	"lua":        lua.GetLanguage,
	"php":        php.GetLanguage,
	"python":     python.GetLanguage,
	"ruby":       ruby.GetLanguage,
	"rust":       rust.GetLanguage,
	"toml":       toml.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"typescript": typescript.GetLanguage,
	"yaml":       yaml.GetLanguage,
}

// enryNames maps enry language names to grammar names where the lowercased
// enry name is not already the grammar name.
var enryNames = map[string]string{
	"C#":    "c_sharp",
	"C++":   "cpp",
	"Shell": "bash",
}

// maxSuggestDistance bounds the edits between an unknown name and the
// grammar suggested for it.
const maxSuggestDistance = 2

var languageCache sync.Map

// Language returns the tree-sitter grammar registered under name.
func Language(name string) (*sitter.Language, error) {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang, nil
		}
	}

	var lang *sitter.Language

	if fn, ok := grammars[name]; ok {
		lang = sitter.NewLanguage(fn())
	} else {
		lang = forestLanguage(name)
	}

	if lang == nil {
		if guess, ok := levenshtein.Closest(name, Languages(), maxSuggestDistance); ok {
			return nil, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownLanguage, name, guess)
		}

		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}

	languageCache.Store(name, lang)

	return lang, nil
}

// forestLanguage consults the full grammar forest, which panics on some
// unknown names instead of returning nil.
func forestLanguage(name string) (lang *sitter.Language) {
	defer func() {
		if recover() != nil {
			lang = nil
		}
	}()

	return forest.GetLanguage(name)
}

// Languages lists the grammars that are always compiled in.
func Languages() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// DetectLanguage guesses the grammar for a file from its name and content.
func DetectLanguage(filename string, content []byte) (string, error) {
	detected := enry.GetLanguage(path.Base(filename), content)
	if detected == "" {
		return "", fmt.Errorf("%w: %s", ErrUndetected, filename)
	}

	name, ok := enryNames[detected]
	if !ok {
		name = strings.ToLower(detected)
	}

	if _, err := Language(name); err != nil {
		return "", fmt.Errorf("%s detected as %s: %w", filename, detected, err)
	}

	return name, nil
}
