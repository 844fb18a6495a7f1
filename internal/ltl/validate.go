package ltl

import (
	"fmt"
	"log/slog"

	"github.com/sequorlabs/sequor/internal/model"
)

// Priority ranks how severe a spec violation is. Only high-priority
// violations invalidate a sequence; medium and low surface as warnings.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority parses a priority name. Unknown names are an error.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("ltl: unknown priority %q", s)
	}
}

// Spec is a named temporal-logic specification with a violation priority.
type Spec struct {
	Name     string
	Formula  Formula
	Priority Priority
}

// Violation records a spec that did not hold over a trace.
type Violation struct {
	Spec     string
	Priority Priority
	Formula  string
}

// Report is the outcome of validating one sequence against a set of
// specs. OK is true exactly when no high-priority spec was violated;
// lower-priority violations are carried in Warnings and never flip OK.
type Report struct {
	OK         bool
	Violations []Violation
	Warnings   []Violation
}

// Phase is the validator's position in its checking lifecycle.
type Phase int

const (
	PhaseUnvalidated Phase = iota
	PhaseChecking
	PhaseValid
	PhaseInvalid
)

func (p Phase) String() string {
	switch p {
	case PhaseUnvalidated:
		return "unvalidated"
	case PhaseChecking:
		return "checking"
	case PhaseValid:
		return "valid"
	case PhaseInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Validator checks sequences against temporal specs. It is a small state
// machine: it starts unvalidated, passes through checking, and lands on
// valid or invalid per the latest Validate call. A validator is not safe
// for concurrent use; each planning cycle gets its own.
type Validator struct {
	phase  Phase
	logger *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger used for violation reporting.
func WithValidatorLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator returns a validator in the unvalidated phase.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{phase: PhaseUnvalidated, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Phase reports the validator's current phase.
func (v *Validator) Phase() Phase { return v.phase }

// Validate evaluates every spec against the state trace of seq starting
// from initial and returns a report. The trace always includes the
// initial state, so specs are checked even for an empty sequence.
func (v *Validator) Validate(seq model.Sequence, initial model.State, specs []Spec) Report {
	v.phase = PhaseChecking
	trace := seq.Trace(initial)

	report := Report{OK: true}
	for _, spec := range specs {
		if spec.Formula == nil {
			v.logger.Warn("skipping spec with no formula", "spec", spec.Name)
			continue
		}
		if Eval(spec.Formula, trace) {
			continue
		}
		viol := Violation{
			Spec:     spec.Name,
			Priority: spec.Priority,
			Formula:  spec.Formula.String(),
		}
		if spec.Priority == PriorityHigh {
			report.OK = false
			report.Violations = append(report.Violations, viol)
			v.logger.Warn("spec violated",
				"spec", spec.Name,
				"priority", spec.Priority.String(),
				"formula", viol.Formula)
		} else {
			report.Warnings = append(report.Warnings, viol)
			v.logger.Debug("spec violated below blocking priority",
				"spec", spec.Name,
				"priority", spec.Priority.String())
		}
	}

	if report.OK {
		v.phase = PhaseValid
	} else {
		v.phase = PhaseInvalid
	}
	return report
}
