package diag

// Policy configures how an Engine escalates or suppresses diagnostics
// before they are recorded, mirroring the {treat_warning_as_error,
// ignore_all_warning, ignore_all_remark, ignore_all_note} knobs.
type Policy struct {
	TreatWarningAsError bool
	IgnoreAllWarning    bool
	IgnoreAllRemark     bool
	IgnoreAllNote       bool
}

// Engine applies a Policy to reported diagnostics and accumulates them.
type Engine struct {
	policy      Policy
	diagnostics []*Diagnostic
}

// NewEngine constructs an Engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Report applies the engine's policy to d (possibly escalating its
// severity or dropping it), records it unless dropped, and returns false
// iff the (possibly escalated) diagnostic is fatal, i.e. its severity is
// Error — allowing callers to short-circuit on a false return.
func (e *Engine) Report(d *Diagnostic) bool {
	switch d.Severity {
	case Note:
		if e.policy.IgnoreAllNote {
			return true
		}
	case Remark:
		if e.policy.IgnoreAllRemark {
			return true
		}
	case Warning:
		if e.policy.IgnoreAllWarning {
			return true
		}
		if e.policy.TreatWarningAsError {
			d.Severity = Error
		}
	}
	e.diagnostics = append(e.diagnostics, d)
	return d.Severity != Error
}

// Diagnostics returns every diagnostic recorded so far, in report order.
func (e *Engine) Diagnostics() []*Diagnostic {
	return e.diagnostics
}

// HasErrors reports whether any recorded diagnostic has Error severity.
func (e *Engine) HasErrors() bool {
	for _, d := range e.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Reporter wraps an Engine with ergonomic per-severity reporting methods,
// mirroring DiagnosticReporter's Error/Warn/Remark/Note surface.
type Reporter struct {
	Engine *Engine
}

// NewReporter constructs a Reporter over a fresh Engine with the given policy.
func NewReporter(policy Policy) *Reporter {
	return &Reporter{Engine: NewEngine(policy)}
}

func (r *Reporter) Error(d *Diagnostic) bool {
	d.Severity = Error
	return r.Engine.Report(d)
}

func (r *Reporter) Warn(d *Diagnostic) bool {
	d.Severity = Warning
	return r.Engine.Report(d)
}

func (r *Reporter) Remark(d *Diagnostic) bool {
	d.Severity = Remark
	return r.Engine.Report(d)
}

func (r *Reporter) Note(d *Diagnostic) bool {
	d.Severity = Note
	return r.Engine.Report(d)
}
