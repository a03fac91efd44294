package lexer

import "github.com/hitoa/vclc/pkg/diag"

// Stream adds lookahead and bounded backtracking over a Lexer: GetTok
// lexes ahead as needed into a buffer; Save/Restore/Commit implement a
// stack of savepoints; when no savepoint is outstanding, Next trims the
// buffer so memory use stays O(1) relative to how far back a parser might
// need to rewind.
type Stream struct {
	lex    *Lexer
	buf    []Token
	errs   []*diag.Diagnostic
	pos    int
	saves  []int
}

// NewStream constructs a Stream over lex.
func NewStream(lex *Lexer) *Stream {
	return &Stream{lex: lex}
}

// fill ensures buf has at least n+1 tokens relative to the stream's
// logical start (buf[0] corresponds to the oldest token still reachable
// by an outstanding savepoint).
func (s *Stream) fill(n int) {
	for len(s.buf) <= n {
		tok, err := s.lex.Next()
		if err != nil {
			s.errs = append(s.errs, err)
		}
		s.buf = append(s.buf, tok)
	}
}

// GetTok returns the token n positions ahead of the cursor (0 = current).
func (s *Stream) GetTok(n int) Token {
	s.fill(s.pos + n)
	return s.buf[s.pos+n]
}

// Peek is GetTok(0).
func (s *Stream) Peek() Token { return s.GetTok(0) }

// Next returns the current token and advances the cursor past it,
// trimming the backing buffer when no savepoint would be invalidated.
func (s *Stream) Next() Token {
	tok := s.GetTok(0)
	s.pos++
	s.compact()
	return tok
}

func (s *Stream) compact() {
	if len(s.saves) > 0 {
		return // an outstanding savepoint still needs buf[0:pos]
	}
	if s.pos == 0 {
		return
	}
	s.buf = append([]Token{}, s.buf[s.pos:]...)
	s.pos = 0
}

// Save pushes the current cursor position as a restorable savepoint.
func (s *Stream) Save() {
	s.saves = append(s.saves, s.pos)
}

// Restore rewinds the cursor to the most recent savepoint and pops it.
func (s *Stream) Restore() {
	n := len(s.saves) - 1
	s.pos = s.saves[n]
	s.saves = s.saves[:n]
}

// Commit discards the most recent savepoint without rewinding, keeping
// the cursor where it is.
func (s *Stream) Commit() {
	s.saves = s.saves[:len(s.saves)-1]
	s.compact()
}

// Diagnostics returns every lex-time diagnostic produced so far.
func (s *Stream) Diagnostics() []*diag.Diagnostic { return s.errs }
