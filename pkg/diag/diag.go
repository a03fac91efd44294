// Package diag implements the structured diagnostic records the rest of
// the compiler reports through, in place of Go's plain error for anything
// semantic. Library packages never panic on user-facing mistakes; they
// accumulate *diag.Diagnostic values and keep going where recovery makes
// sense (see Engine.Report's fatal/non-fatal split), the same separation
// go-corset draws between []SyntaxError accumulation and hard Go errors.
package diag

import (
	"fmt"

	"github.com/hitoa/vclc/pkg/source"
)

// Severity is the escalation-adjusted level of a Diagnostic.
type Severity int

const (
	Note Severity = iota
	Remark
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Remark:
		return "remark"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Code is the closed taxonomy of error kinds from the error-handling design.
type Code string

const (
	FileNotFound            Code = "FileNotFound"
	InvalidCharacter         Code = "InvalidCharacter"
	UnterminatedString       Code = "UnterminatedString"
	NumericTooManyDots       Code = "NumericTooManyDots"
	UnexpectedToken          Code = "UnexpectedToken"
	UndefinedName            Code = "UndefinedName"
	Redefinition             Code = "Redefinition"
	TypeMismatch             Code = "TypeMismatch"
	ImplicitPrecisionLoss    Code = "ImplicitPrecisionLoss"
	NotCallable              Code = "NotCallable"
	WrongArgCount            Code = "WrongArgCount"
	WrongArgType             Code = "WrongArgType"
	NotAnLValue              Code = "NotAnLValue"
	AssignToConst            Code = "AssignToConst"
	MissingReturn            Code = "MissingReturn"
	BreakOutsideLoop         Code = "BreakOutsideLoop"
	MissingTemplateArg       Code = "MissingTemplateArg"
	TemplateArgKindMismatch  Code = "TemplateArgKindMismatch"
	InferenceFailure         Code = "InferenceFailure"
	AmbiguousOverload        Code = "AmbiguousOverload"
	NonConstantInitializer   Code = "NonConstantInitializer"
	UnsupportedCast          Code = "UnsupportedCast"
	UnsupportedAggregate     Code = "UnsupportedAggregate"
	SelectRecursion          Code = "SelectRecursion"
	ImportCycle              Code = "ImportCycle"
	BrokenDebugInfo          Code = "BrokenDebugInfo"
)

// Diagnostic is a structured error/warning/note record: a severity, a
// stable code, formatted arguments, and optional hints, each carrying the
// source range it applies to (when one is available — directive-time
// diagnostics that aren't tied to a single token may leave it zero).
type Diagnostic struct {
	Severity Severity
	Code     Code
	Range    source.Range
	HasRange bool
	Message  string
	Hints    []string
}

// Error implements the error interface so a Diagnostic can be returned
// wherever idiomatic Go expects one (e.g. from Source.LoadFromDisk-style
// host-boundary functions), without the rest of the compiler treating
// diagnostics as Go errors internally.
func (d *Diagnostic) Error() string {
	if d.HasRange {
		line, col := d.Range.Start.Buffer.GetLineColumn(d.Range.Start.Offset)
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Range.Start.Buffer.Name(), line, col, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

func at(sev Severity, code Code, r source.Range, format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: sev, Code: code, Range: r, HasRange: true, Message: fmt.Sprintf(format, args...)}
}

// At constructs a Diagnostic anchored to a source range.
func At(sev Severity, code Code, r source.Range, format string, args ...any) *Diagnostic {
	return at(sev, code, r, format, args...)
}

// Global constructs a Diagnostic with no specific source anchor (used by
// host-boundary operations like LoadFromDisk before any buffer exists).
func Global(sev Severity, code Code, format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: sev, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithHint appends a hint string and returns the same Diagnostic, for
// chaining at the construction site.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hints = append(d.Hints, hint)
	return d
}
