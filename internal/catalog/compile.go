package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/sequorlabs/sequor/internal/ltl"
	"github.com/sequorlabs/sequor/internal/model"
)

// Domain is a compiled planning domain: the action catalog plus the
// temporal specs every plan over it must satisfy.
type Domain struct {
	Catalog *Catalog
	Specs   []ltl.Spec
}

// CompileFile compiles a CUE domain file.
func CompileFile(path string) (*Domain, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return CompileString(string(src), path)
}

// CompileString parses CUE source into a Domain. Uses the CUE SDK's Go
// API directly (not a CLI subprocess).
//
// The expected shape:
//
//	action: move_dock_shelf: {
//		name:    "move from dock to shelf"
//		pre: [{key: "at", value: "dock"}]
//		effects: at: "shelf"
//		cost:    1.0
//		success_prob: 0.95
//	}
//	spec: avoid_danger_zone: {
//		priority: "high"
//		formula: always: atom: {key: "at", value: "danger_zone", negated: true}
//	}
func CompileString(src, filename string) (*Domain, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	actions, err := parseActions(v)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, &CompileError{
			Field:   "action",
			Message: "at least one action is required",
			Pos:     v.Pos(),
		}
	}

	cat, err := New(actions)
	if err != nil {
		return nil, err
	}

	specs, err := parseSpecs(v)
	if err != nil {
		return nil, err
	}

	return &Domain{Catalog: cat, Specs: specs}, nil
}

// parseActions extracts action definitions in declaration order.
func parseActions(v cue.Value) ([]model.Action, error) {
	var actions []model.Action

	actionVal := v.LookupPath(cue.ParsePath("action"))
	if !actionVal.Exists() {
		return actions, nil
	}

	iter, err := actionVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		id := iter.Label()
		actionValue := iter.Value()

		action := model.Action{ID: id, Name: id, SuccessProb: 1}

		if nameVal := actionValue.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
			name, err := nameVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			action.Name = name
		}

		if preVal := actionValue.LookupPath(cue.ParsePath("pre")); preVal.Exists() {
			preds, err := parsePredicates(preVal)
			if err != nil {
				return nil, err
			}
			action.Preconditions = preds
		}

		effectsVal := actionValue.LookupPath(cue.ParsePath("effects"))
		if !effectsVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("action.%s.effects", id),
				Message: "action effects are required",
				Pos:     actionValue.Pos(),
			}
		}
		effects, err := parseEffects(effectsVal)
		if err != nil {
			return nil, err
		}
		action.Effects = effects

		if costVal := actionValue.LookupPath(cue.ParsePath("cost")); costVal.Exists() {
			cost, err := costVal.Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			action.Cost = cost
		}

		if probVal := actionValue.LookupPath(cue.ParsePath("success_prob")); probVal.Exists() {
			prob, err := probVal.Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			action.SuccessProb = prob
		}

		actions = append(actions, action)
	}

	return actions, nil
}

// parsePredicates parses a list of {key, value, negated?} objects.
func parsePredicates(v cue.Value) ([]model.Predicate, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var preds []model.Predicate
	for iter.Next() {
		p, err := parsePredicate(iter.Value())
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func parsePredicate(v cue.Value) (model.Predicate, error) {
	var p model.Predicate

	keyVal := v.LookupPath(cue.ParsePath("key"))
	if !keyVal.Exists() {
		return p, &CompileError{
			Field:   "predicate",
			Message: "key is required",
			Pos:     v.Pos(),
		}
	}
	key, err := keyVal.String()
	if err != nil {
		return p, formatCUEError(err)
	}
	p.Key = key

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return p, &CompileError{
			Field:   "predicate",
			Message: "value is required",
			Pos:     v.Pos(),
		}
	}
	p.Value, err = extractScalar(valueVal)
	if err != nil {
		return p, err
	}

	if negVal := v.LookupPath(cue.ParsePath("negated")); negVal.Exists() {
		neg, err := negVal.Bool()
		if err != nil {
			return p, formatCUEError(err)
		}
		p.Negated = neg
	}

	return p, nil
}

// parseEffects parses a field map of scalar assignments.
func parseEffects(v cue.Value) (map[string]model.Value, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	effects := make(map[string]model.Value)
	for iter.Next() {
		val, err := extractScalar(iter.Value())
		if err != nil {
			return nil, err
		}
		effects[iter.Label()] = val
	}
	return effects, nil
}

// parseSpecs extracts temporal specs in declaration order.
func parseSpecs(v cue.Value) ([]ltl.Spec, error) {
	specVal := v.LookupPath(cue.ParsePath("spec"))
	if !specVal.Exists() {
		return nil, nil
	}

	iter, err := specVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ltl.Spec
	for iter.Next() {
		name := iter.Label()
		specValue := iter.Value()

		spec := ltl.Spec{Name: name, Priority: ltl.PriorityMedium}

		if prioVal := specValue.LookupPath(cue.ParsePath("priority")); prioVal.Exists() {
			raw, err := prioVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			prio, err := ltl.ParsePriority(raw)
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("spec.%s.priority", name),
					Message: err.Error(),
					Pos:     prioVal.Pos(),
				}
			}
			spec.Priority = prio
		}

		formulaVal := specValue.LookupPath(cue.ParsePath("formula"))
		if !formulaVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("spec.%s.formula", name),
				Message: "formula is required",
				Pos:     specValue.Pos(),
			}
		}
		formula, err := parseFormula(formulaVal)
		if err != nil {
			return nil, err
		}
		spec.Formula = formula

		specs = append(specs, spec)
	}

	return specs, nil
}

// parseFormula parses a structural formula object: exactly one of
// atom/not/and/or/next/always/eventually/until.
func parseFormula(v cue.Value) (ltl.Formula, error) {
	if atomVal := v.LookupPath(cue.ParsePath("atom")); atomVal.Exists() {
		p, err := parsePredicate(atomVal)
		if err != nil {
			return nil, err
		}
		return ltl.Atom(p), nil
	}

	for _, unary := range []struct {
		key  string
		wrap func(ltl.Formula) ltl.Formula
	}{
		{"not", ltl.Not},
		{"next", ltl.Next},
		{"always", ltl.Always},
		{"eventually", ltl.Eventually},
	} {
		if inner := v.LookupPath(cue.ParsePath(unary.key)); inner.Exists() {
			f, err := parseFormula(inner)
			if err != nil {
				return nil, err
			}
			return unary.wrap(f), nil
		}
	}

	for _, nary := range []struct {
		key  string
		wrap func(...ltl.Formula) ltl.Formula
	}{
		{"and", ltl.And},
		{"or", ltl.Or},
	} {
		if listVal := v.LookupPath(cue.ParsePath(nary.key)); listVal.Exists() {
			iter, err := listVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			var operands []ltl.Formula
			for iter.Next() {
				f, err := parseFormula(iter.Value())
				if err != nil {
					return nil, err
				}
				operands = append(operands, f)
			}
			return nary.wrap(operands...), nil
		}
	}

	if untilVal := v.LookupPath(cue.ParsePath("until")); untilVal.Exists() {
		left, err := parseFormula(untilVal.LookupPath(cue.ParsePath("left")))
		if err != nil {
			return nil, err
		}
		right, err := parseFormula(untilVal.LookupPath(cue.ParsePath("right")))
		if err != nil {
			return nil, err
		}
		return ltl.Until(left, right), nil
	}

	return nil, &CompileError{
		Field:   "formula",
		Message: "expected one of atom, not, and, or, next, always, eventually, until",
		Pos:     v.Pos(),
	}
}

// extractScalar converts a CUE scalar into a model value.
func extractScalar(v cue.Value) (model.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return model.String(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return model.Bool(b), nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return model.Number(f), nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported scalar kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
