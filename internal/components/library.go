package components

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/riskflow/internal/parameter"
	"github.com/roach88/riskflow/internal/wiring"
)

// Constructor builds a component of one kind from its decoded parameters.
type Constructor func(name string, params map[string]any) (*wiring.Component, error)

// ParamError reports parameters a kind cannot accept.
type ParamError struct {
	Kind      string
	Component string
	Err       error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("component %s (%s): invalid params: %v", e.Component, e.Kind, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// Library maps kind names to constructors.
type Library struct {
	kinds map[string]Constructor
}

// NewLibrary returns a library holding the built-in kinds.
func NewLibrary() *Library {
	l := &Library{kinds: make(map[string]Constructor)}
	l.Register(KindClaimsGenerator, NewClaimsGenerator)
	l.Register(KindQuotaShare, NewQuotaShare)
	l.Register(KindAggregator, NewAggregator)
	return l
}

// Register adds or replaces a kind.
func (l *Library) Register(kind string, c Constructor) {
	l.kinds[kind] = c
}

// Kinds returns the registered kind names, sorted.
func (l *Library) Kinds() []string {
	out := make([]string, 0, len(l.kinds))
	for k := range l.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs a component of the given kind.
func (l *Library) Build(kind, name string, params map[string]any) (*wiring.Component, error) {
	c, ok := l.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("component %s: unknown kind %q (known: %v)", name, kind, l.Kinds())
	}
	return c(name, params)
}

// decodeParams decodes params into out. Unknown keys are rejected, and list
// literals or nested lists decode into *parameter.Grid fields.
func decodeParams(kind, name string, params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       gridHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return &ParamError{Kind: kind, Component: name, Err: err}
	}
	return nil
}

var gridType = reflect.TypeFor[*parameter.Grid]()

func gridHook(from, to reflect.Type, data any) (any, error) {
	if to != gridType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return parameter.Parse(v)
	case []any:
		rows := make([][]any, len(v))
		for i, row := range v {
			cells, ok := row.([]any)
			if !ok {
				return nil, fmt.Errorf("table row %d is %T, expected a list", i, row)
			}
			rows[i] = cells
		}
		return parameter.New(rows)
	default:
		return data, nil
	}
}
