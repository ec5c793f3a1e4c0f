package model

import (
	"errors"
	"fmt"

	"github.com/roach88/riskflow/internal/components"
	"github.com/roach88/riskflow/internal/wiring"
)

// Build constructs the components and wiring of def and seals the graph.
// Errors are *LoadError carrying the position of the offending declaration.
func Build(def *Definition, lib *components.Library, opts ...wiring.GraphOption) (*wiring.Graph, error) {
	g := wiring.NewGraph(opts...)

	for _, cd := range def.Components {
		c, err := lib.Build(cd.Kind, cd.Name, cd.Params)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeKind, Message: err.Error(), Pos: cd.Pos, Err: err}
		}
		if err := g.AddComponent(c); err != nil {
			return nil, &LoadError{Code: ErrCodeComponents, Message: err.Error(), Pos: cd.Pos, Err: err}
		}
	}

	for _, wd := range def.Wiring {
		if _, err := g.Wire(wd.Sender, wd.Source, wd.Receiver, wd.Target); err != nil {
			return nil, &LoadError{Code: ErrCodeWiring, Message: fmt.Sprintf("%s: %v", wd, err), Pos: wd.Pos, Err: err}
		}
	}

	if err := g.Seal(); err != nil {
		code := ErrCodeGeneric
		var ce *wiring.CycleError
		if errors.As(err, &ce) {
			code = ErrCodeCycle
		}
		return nil, &LoadError{Code: code, Message: err.Error(), Err: err}
	}
	return g, nil
}
