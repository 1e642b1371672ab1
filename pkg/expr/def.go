package expr

import (
	"fmt"

	"pressroom/pkg/report"
)

// FromDef creates the expression a report declares. Page expressions read
// their numbers from rt.
func FromDef(def report.ExpressionDef, rt *Runtime) (Expression, error) {
	var e Expression
	switch def.Kind {
	case "item-count":
		e = NewItemCount(def.Name, def.Group)
	case "item-sum":
		e = NewItemSum(def.Name, def.Field, def.Group)
	case "total-item-count":
		e = NewTotalItemCount(def.Name, def.Group)
	case "page-number":
		e = NewPageNumber(def.Name, rt)
	case "total-pages":
		e = NewTotalPages(def.Name, rt)
	case "formula":
		f, err := NewFormula(def.Name, def.Formula)
		if err != nil {
			return nil, err
		}
		e = f
	default:
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownKind, def.Kind, def.Name)
	}
	if def.Level != nil {
		setLevel(e, *def.Level)
	}
	return e, nil
}

func setLevel(e Expression, level int) {
	switch x := e.(type) {
	case *ItemCount:
		x.level = level
	case *ItemSum:
		x.level = level
	case *TotalItemCount:
		x.level = level
	case *PageNumber:
		x.level = level
	case *TotalPages:
		x.level = level
	case *Formula:
		x.level = level
	}
}

// Build creates a runtime holding the declared expressions.
func Build(defs []report.ExpressionDef) (*Runtime, error) {
	rt, _ := NewRuntime()
	for _, d := range defs {
		e, err := FromDef(d, rt)
		if err != nil {
			return nil, err
		}
		if err := rt.Add(e); err != nil {
			return nil, err
		}
	}
	return rt, nil
}
