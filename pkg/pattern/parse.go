package pattern

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel errors for Parse.
var (
	ErrUnexpectedEOF   = errors.New("unexpected end of pattern")
	ErrUnexpectedChar  = errors.New("unexpected character")
	ErrTrailingInput   = errors.New("trailing input after pattern")
	ErrEmptySequence   = errors.New("empty sequence")
	ErrDecoratedGroup  = errors.New("sequence cannot carry a field or capture")
	ErrMissingName     = errors.New("missing name")
	ErrUnterminatedStr = errors.New("unterminated string")
)

// Parse reads a pattern written in the subset of the query grammar that
// String produces: parenthesised named nodes, the `_` wildcard, quoted
// anonymous nodes, `field:` prefixes and `@capture` suffixes.
func Parse(text string) (*Pattern, error) {
	sc := &scanner{src: text}

	p, err := sc.pattern()
	if err != nil {
		return nil, err
	}

	sc.skipSpace()

	if !sc.eof() {
		return nil, fmt.Errorf("%w at offset %d", ErrTrailingInput, sc.pos)
	}

	return p, nil
}

type scanner struct {
	src string
	pos int
}

func (sc *scanner) eof() bool {
	return sc.pos >= len(sc.src)
}

func (sc *scanner) peek() rune {
	r, _ := utf8.DecodeRuneInString(sc.src[sc.pos:])

	return r
}

func (sc *scanner) skipSpace() {
	for !sc.eof() {
		r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		sc.pos += size
	}
}

func (sc *scanner) unexpected() error {
	if sc.eof() {
		return ErrUnexpectedEOF
	}

	return fmt.Errorf("%w %q at offset %d", ErrUnexpectedChar, sc.peek(), sc.pos)
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

// ident consumes an identifier, returning "" when none starts at pos.
func (sc *scanner) ident() string {
	start := sc.pos

	for !sc.eof() {
		r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
		if !isIdentRune(r) {
			break
		}

		sc.pos += size
	}

	return sc.src[start:sc.pos]
}

// fieldPrefix consumes `name:` if it starts at pos.
func (sc *scanner) fieldPrefix() string {
	start := sc.pos
	name := sc.ident()

	sc.skipSpace()

	if name == "" || sc.eof() || sc.peek() != ':' {
		sc.pos = start

		return ""
	}

	sc.pos++

	return name
}

func (sc *scanner) pattern() (*Pattern, error) {
	sc.skipSpace()

	field := sc.fieldPrefix()

	sc.skipSpace()

	if sc.eof() {
		return nil, ErrUnexpectedEOF
	}

	var (
		p   *Pattern
		err error
	)

	switch r := sc.peek(); {
	case r == '(':
		p, err = sc.group()
	case r == '"':
		p, err = sc.literal()
	case r == '_':
		sc.pos++
		p = &Pattern{Kind: Wildcard}

		if !sc.eof() && isIdentRune(sc.peek()) {
			sc.pos--

			return nil, sc.unexpected()
		}
	default:
		return nil, sc.unexpected()
	}

	if err != nil {
		return nil, err
	}

	p.Field = field

	capture, err := sc.capture()
	if err != nil {
		return nil, err
	}

	p.Capture = capture

	if p.IsSequence() && (p.Field != "" || p.Capture != "") {
		return nil, ErrDecoratedGroup
	}

	return p, nil
}

// group parses `(kind child...)` or a sequence `(child...)`.
func (sc *scanner) group() (*Pattern, error) {
	sc.pos++ // (

	sc.skipSpace()

	p := &Pattern{Named: true}

	// A leading `name:` belongs to the first child of a sequence.
	start := sc.pos
	if sc.fieldPrefix() == "" {
		p.Kind = sc.ident()
	} else {
		sc.pos = start
	}

	for {
		sc.skipSpace()

		if sc.eof() {
			return nil, ErrUnexpectedEOF
		}

		if sc.peek() == ')' {
			sc.pos++

			break
		}

		child, err := sc.pattern()
		if err != nil {
			return nil, err
		}

		p.Children = append(p.Children, child)
	}

	if p.IsSequence() && len(p.Children) == 0 {
		return nil, ErrEmptySequence
	}

	return p, nil
}

// literal parses a quoted anonymous node kind. Only \" is an escape.
func (sc *scanner) literal() (*Pattern, error) {
	sc.pos++ // "

	var sb strings.Builder

	for !sc.eof() {
		c := sc.src[sc.pos]

		switch {
		case c == '"':
			sc.pos++

			return &Pattern{Kind: sb.String()}, nil
		case c == '\\' && sc.pos+1 < len(sc.src) && sc.src[sc.pos+1] == '"':
			sb.WriteByte('"')

			sc.pos += 2
		default:
			sb.WriteByte(c)

			sc.pos++
		}
	}

	return nil, ErrUnterminatedStr
}

func (sc *scanner) capture() (string, error) {
	start := sc.pos

	sc.skipSpace()

	if sc.eof() || sc.peek() != '@' {
		sc.pos = start

		return "", nil
	}

	sc.pos++

	name := sc.ident()
	if name == "" {
		return "", fmt.Errorf("%w after @ at offset %d", ErrMissingName, sc.pos)
	}

	return name, nil
}
