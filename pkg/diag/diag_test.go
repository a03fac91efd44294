package diag_test

import (
	"strings"
	"testing"

	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/source"
)

func testRange() source.Range {
	buf := source.NewBuffer("test.vcl", []byte("int x = y;"))
	return source.NewRange(
		source.Location{Buffer: buf, Offset: 8},
		source.Location{Buffer: buf, Offset: 9},
	)
}

func TestAtBuildsRangedDiagnostic(t *testing.T) {
	d := diag.At(diag.Error, diag.UndefinedName, testRange(), "undefined name %q", "y")
	if !d.HasRange {
		t.Fatalf("expected At to set HasRange")
	}
	if d.Severity != diag.Error || d.Code != diag.UndefinedName {
		t.Fatalf("unexpected severity/code: %v/%v", d.Severity, d.Code)
	}
	if d.Message != `undefined name "y"` {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestGlobalBuildsRangelessDiagnostic(t *testing.T) {
	d := diag.Global(diag.Error, diag.FileNotFound, "cannot read %s", "a.vcl")
	if d.HasRange {
		t.Fatalf("expected Global not to set HasRange")
	}
	if d.Message != "cannot read a.vcl" {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestDiagnosticErrorFormatsRangedAndGlobalDifferently(t *testing.T) {
	ranged := diag.At(diag.Warning, diag.TypeMismatch, testRange(), "bad type")
	if !strings.Contains(ranged.Error(), "test.vcl:1:9: warning: bad type") {
		t.Fatalf("unexpected ranged Error() output: %q", ranged.Error())
	}

	global := diag.Global(diag.Error, diag.FileNotFound, "missing")
	if global.Error() != "error: missing" {
		t.Fatalf("unexpected global Error() output: %q", global.Error())
	}
}

func TestWithHintAppendsAndReturnsSameDiagnostic(t *testing.T) {
	d := diag.Global(diag.Note, diag.UndefinedName, "x")
	got := d.WithHint("did you mean y?")
	if got != d {
		t.Fatalf("expected WithHint to return the same *Diagnostic for chaining")
	}
	if len(d.Hints) != 1 || d.Hints[0] != "did you mean y?" {
		t.Fatalf("unexpected hints: %v", d.Hints)
	}
}

func TestSeverityString(t *testing.T) {
	cases := map[diag.Severity]string{
		diag.Note:    "note",
		diag.Remark:  "remark",
		diag.Warning: "warning",
		diag.Error:   "error",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}

func TestEngineReportAccumulatesAndDetectsErrors(t *testing.T) {
	e := diag.NewEngine(diag.Policy{})
	if ok := e.Report(diag.Global(diag.Warning, diag.TypeMismatch, "w")); !ok {
		t.Fatalf("expected Report of a Warning to return true (non-fatal)")
	}
	if e.HasErrors() {
		t.Fatalf("expected HasErrors to be false after only a warning")
	}
	if ok := e.Report(diag.Global(diag.Error, diag.UndefinedName, "e")); ok {
		t.Fatalf("expected Report of an Error to return false (fatal)")
	}
	if !e.HasErrors() {
		t.Fatalf("expected HasErrors to be true after an Error was reported")
	}
	if len(e.Diagnostics()) != 2 {
		t.Fatalf("expected 2 recorded diagnostics, got %d", len(e.Diagnostics()))
	}
}

func TestEngineTreatWarningAsErrorEscalates(t *testing.T) {
	e := diag.NewEngine(diag.Policy{TreatWarningAsError: true})
	d := diag.Global(diag.Warning, diag.TypeMismatch, "w")
	if ok := e.Report(d); ok {
		t.Fatalf("expected an escalated warning to be reported as fatal")
	}
	if d.Severity != diag.Error {
		t.Fatalf("expected the diagnostic's own severity to be escalated to Error, got %v", d.Severity)
	}
}

func TestEngineIgnorePolicyDropsWithoutRecording(t *testing.T) {
	e := diag.NewEngine(diag.Policy{IgnoreAllNote: true, IgnoreAllRemark: true, IgnoreAllWarning: true})
	e.Report(diag.Global(diag.Note, diag.UndefinedName, "n"))
	e.Report(diag.Global(diag.Remark, diag.UndefinedName, "r"))
	e.Report(diag.Global(diag.Warning, diag.UndefinedName, "w"))
	if len(e.Diagnostics()) != 0 {
		t.Fatalf("expected all three diagnostics to be dropped, got %d recorded", len(e.Diagnostics()))
	}
}

func TestReporterSeverityMethodsOverrideAndEscalate(t *testing.T) {
	r := diag.NewReporter(diag.Policy{})
	// Construct with one severity, then report through a different method —
	// the Reporter method's severity must win.
	d := diag.Global(diag.Note, diag.UndefinedName, "x")
	if ok := r.Error(d); ok {
		t.Fatalf("expected Reporter.Error to report as fatal regardless of the diagnostic's original severity")
	}
	if d.Severity != diag.Error {
		t.Fatalf("expected Reporter.Error to set Severity to Error, got %v", d.Severity)
	}

	d2 := diag.Global(diag.Error, diag.UndefinedName, "y")
	r.Warn(d2)
	if d2.Severity != diag.Warning {
		t.Fatalf("expected Reporter.Warn to set Severity to Warning, got %v", d2.Severity)
	}

	if !r.Engine.HasErrors() {
		t.Fatalf("expected the underlying engine to have recorded the earlier Error-severity report")
	}
}
