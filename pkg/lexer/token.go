// Package lexer turns a source.Buffer into a stream of Tokens, following
// the rune-cursor shape of sexp.Parser but classifying a C-like surface
// grammar instead of s-expressions.
package lexer

import "github.com/hitoa/vclc/pkg/source"

// Kind enumerates every token kind the lexer can produce.
type Kind int

const (
	EndOfFile Kind = iota
	Unknown
	Identifier
	StringLiteral
	IntegerConstant
	FloatConstant

	// Keywords
	KwReturn
	KwIf
	KwElse
	KwWhile
	KwFor
	KwBreak
	KwStruct
	KwTypename
	KwFloat
	KwBool
	KwInt
	KwVoid
	KwVFloat
	KwVBool
	KwVInt
	KwArray
	KwSpan
	KwConst
	KwIn
	KwOut
	KwTemplate

	// Punctuators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	LAngle
	RAngle
	Comma
	Semicolon
	Dot
	At

	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	Assign
	PlusPlus
	MinusMinus

	AmpAmp
	PipePipe
	EqEq
	NotEq
	LessEq
	GreaterEq
)

var keywords = map[string]Kind{
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"break":    KwBreak,
	"struct":   KwStruct,
	"typename": KwTypename,
	"float":    KwFloat,
	"bool":     KwBool,
	"int":      KwInt,
	"void":     KwVoid,
	"vfloat":   KwVFloat,
	"vbool":    KwVBool,
	"vint":     KwVInt,
	"array":    KwArray,
	"span":     KwSpan,
	"const":    KwConst,
	"in":       KwIn,
	"out":      KwOut,
	"template": KwTemplate,
}

// punctuators are tried longest-match-first: length 2 before length 1.
// There are no 3-byte punctuators in the grammar, and the lexer has no
// lookup step for them.
var punctuators2 = map[string]Kind{
	"++": PlusPlus,
	"--": MinusMinus,
	"&&": AmpAmp,
	"||": PipePipe,
	"==": EqEq,
	"!=": NotEq,
	"<=": LessEq,
	">=": GreaterEq,
}

var punctuators1 = map[byte]Kind{
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	'<': LAngle,
	'>': RAngle,
	',': Comma,
	';': Semicolon,
	'.': Dot,
	'@': At,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'%': Percent,
	'!': Bang,
	'=': Assign,
}

// Token is {kind, range}; its textual value is derived from range, never
// stored separately.
type Token struct {
	Kind  Kind
	Range source.Range
}

// Text returns the literal source text this token covers.
func (t Token) Text() string { return string(t.Range.Text()) }
