package lexer

import (
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/source"
)

// Lexer classifies the next character of a Buffer into a Token. It
// carries no lookahead of its own; Stream layers that on top, the
// same split sexp.Parser draws between raw cursor advance and the
// higher-level Next/Lookahead API.
type Lexer struct {
	buf    *source.Buffer
	offset int
}

// New constructs a Lexer positioned at the start of buf.
func New(buf *source.Buffer) *Lexer {
	return &Lexer{buf: buf}
}

func (l *Lexer) loc(off int) source.Location { return source.Location{Buffer: l.buf, Offset: off} }

func (l *Lexer) peek(ahead int) (byte, bool) {
	i := l.offset + ahead
	if i >= l.buf.Len() {
		return 0, false
	}
	return l.buf.At(i), true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		c, ok := l.peek(0)
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.offset++
		case c == '/' && peekIs(l, 1, '/'):
			for {
				c, ok := l.peek(0)
				if !ok || c == '\n' {
					break
				}
				l.offset++
			}
		case c == '/' && peekIs(l, 1, '*'):
			l.offset += 2
			for {
				c, ok := l.peek(0)
				if !ok {
					break
				}
				if c == '*' && peekIs(l, 1, '/') {
					l.offset += 2
					break
				}
				l.offset++
			}
		default:
			return
		}
	}
}

func peekIs(l *Lexer, ahead int, want byte) bool {
	c, ok := l.peek(ahead)
	return ok && c == want
}

// Next lexes and returns the next Token, or a *diag.Diagnostic if the
// character at the cursor cannot be classified (InvalidCharacter) or an
// unterminated/malformed literal was found. On error, the lexer still
// advances past the offending text so callers that choose to continue can.
func (l *Lexer) Next() (Token, *diag.Diagnostic) {
	l.skipWhitespaceAndComments()
	start := l.offset
	c, ok := l.peek(0)
	if !ok {
		return Token{Kind: EndOfFile, Range: source.NewRange(l.loc(start), l.loc(start))}, nil
	}

	switch {
	case isIdentStart(c):
		for {
			c, ok := l.peek(0)
			if !ok || !isIdentCont(c) {
				break
			}
			l.offset++
		}
		text := string(l.buf.Slice(start, l.offset))
		kind := Identifier
		if kw, isKw := keywords[text]; isKw {
			kind = kw
		}
		return l.tok(kind, start), nil

	case c == '"':
		l.offset++
		for {
			c, ok := l.peek(0)
			if !ok || c == '\n' {
				return l.tok(Unknown, start), diag.At(diag.Error, diag.UnterminatedString,
					source.NewRange(l.loc(start), l.loc(l.offset)), "unterminated string literal")
			}
			if c == '\\' {
				l.offset += 2
				continue
			}
			l.offset++
			if c == '"' {
				break
			}
		}
		return l.tok(StringLiteral, start), nil

	case isDigit(c):
		dots := 0
		for {
			c, ok := l.peek(0)
			if !ok {
				break
			}
			if c == '.' {
				dots++
				l.offset++
				continue
			}
			if !isDigit(c) {
				break
			}
			l.offset++
		}
		if dots > 1 {
			return l.tok(Unknown, start), diag.At(diag.Error, diag.NumericTooManyDots,
				source.NewRange(l.loc(start), l.loc(l.offset)), "numeric constant has more than one '.'")
		}
		if dots == 1 {
			return l.tok(FloatConstant, start), nil
		}
		return l.tok(IntegerConstant, start), nil

	default:
		if l.offset+1 < l.buf.Len() {
			two := string(l.buf.Slice(l.offset, l.offset+2))
			if kind, ok := punctuators2[two]; ok {
				l.offset += 2
				return l.tok(kind, start), nil
			}
		}
		if kind, ok := punctuators1[c]; ok {
			l.offset++
			return l.tok(kind, start), nil
		}
		l.offset++
		return l.tok(Unknown, start), diag.At(diag.Error, diag.InvalidCharacter,
			source.NewRange(l.loc(start), l.loc(l.offset)), "invalid character %q", string(c))
	}
}

func (l *Lexer) tok(kind Kind, start int) Token {
	return Token{Kind: kind, Range: source.NewRange(l.loc(start), l.loc(l.offset))}
}
