package lexer

import (
	"testing"

	"github.com/hitoa/vclc/pkg/source"
)

func lexAll(t *testing.T, text string) []Token {
	t.Helper()
	buf := source.NewBuffer("test", []byte(text))
	stream := NewStream(New(buf))
	var toks []Token
	for {
		tok := stream.Next()
		toks = append(toks, tok)
		if tok.Kind == EndOfFile {
			break
		}
	}
	return toks
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "int x = fact(n);")
	wantKinds := []Kind{KwInt, Identifier, Assign, Identifier, LParen, Identifier, RParen, Semicolon, EndOfFile}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %v, want %v (%q)", i, toks[i].Kind, k, toks[i].Text())
		}
	}
}

func TestLexNumericConstants(t *testing.T) {
	toks := lexAll(t, "42 3.14")
	if toks[0].Kind != IntegerConstant || toks[0].Text() != "42" {
		t.Errorf("expected IntegerConstant 42, got %v %q", toks[0].Kind, toks[0].Text())
	}
	if toks[1].Kind != FloatConstant || toks[1].Text() != "3.14" {
		t.Errorf("expected FloatConstant 3.14, got %v %q", toks[1].Kind, toks[1].Text())
	}
}

func TestLexNumericTooManyDotsIsError(t *testing.T) {
	buf := source.NewBuffer("test", []byte("1.2.3"))
	l := New(buf)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected an error for 1.2.3")
	}
}

func TestLexUnterminatedString(t *testing.T) {
	buf := source.NewBuffer("test", []byte(`"abc`))
	l := New(buf)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestLexPunctuatorsGreedy(t *testing.T) {
	toks := lexAll(t, "++ -- && || == != <= >=")
	want := []Kind{PlusPlus, MinusMinus, AmpAmp, PipePipe, EqEq, NotEq, LessEq, GreaterEq, EndOfFile}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexInvalidCharacter(t *testing.T) {
	buf := source.NewBuffer("test", []byte("$"))
	l := New(buf)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected InvalidCharacter error")
	}
}

func TestLexSkipsComments(t *testing.T) {
	toks := lexAll(t, "int x; // comment\n/* block */ int y;")
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []Kind{KwInt, Identifier, Semicolon, KwInt, Identifier, Semicolon, EndOfFile}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}
