// Package model loads simulation models written in CUE.
//
// A model directory holds one CUE package with three top-level fields:
//
//	model: {name: "motor", iterations: 1000, periods: 4, seed: 42}
//	components: {
//		gross: {kind: "claims-generator", params: {frequency: 3, mu: 8, sigma: 1}}
//		net:   {kind: "aggregator"}
//	}
//	wiring: [{from: "gross.outClaims", to: "net.inClaims"}]
//
// Components are declared in field order, which is also the tie-break of the
// firing order.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error codes shared by the loader and the CLI.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"

	ErrCodeModel      = "E101" // missing or invalid model block
	ErrCodeComponents = "E102" // missing or invalid components
	ErrCodeKind       = "E103" // unknown kind or bad params
	ErrCodeWiring     = "E110" // invalid wiring entry
	ErrCodeCycle      = "E111" // wiring contains a cycle
)

// LoadError is a model error with an optional CUE source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Code returns the LoadError code of err, or ErrCodeGeneric.
func Code(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// Definition is a loaded, not yet built model.
type Definition struct {
	Name       string
	Iterations int
	Periods    int
	Seed       uint64
	Components []ComponentDef
	Wiring     []WireDef
	// Files is the number of .cue files found.
	Files int
}

// ComponentDef declares one component.
type ComponentDef struct {
	Name   string
	Kind   string
	Params map[string]any
	Pos    token.Pos
}

// WireDef connects Sender.Source to Receiver.Target.
type WireDef struct {
	Sender   string
	Source   string
	Receiver string
	Target   string
	Pos      token.Pos
}

func (w WireDef) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", w.Sender, w.Source, w.Receiver, w.Target)
}

// Load reads the CUE package in dir.
func Load(dir string) (*Definition, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing model directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueLoadError(ErrCodeLoadFailed, "loading CUE files", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Validate(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "building CUE value", err)
	}

	def, err := Decode(value)
	if err != nil {
		return nil, err
	}
	def.Files = len(files)
	return def, nil
}

// Decode extracts a definition from an already built CUE value.
func Decode(v cue.Value) (*Definition, error) {
	def := &Definition{}
	if err := decodeHeader(v, def); err != nil {
		return nil, err
	}
	if err := decodeComponents(v, def); err != nil {
		return nil, err
	}
	if err := decodeWiring(v, def); err != nil {
		return nil, err
	}
	return def, nil
}

func decodeHeader(v cue.Value, def *Definition) error {
	m := v.LookupPath(cue.ParsePath("model"))
	if !m.Exists() {
		return &LoadError{Code: ErrCodeModel, Message: "model block is required", Pos: v.Pos()}
	}

	name, err := m.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return &LoadError{Code: ErrCodeModel, Message: "model.name must be a string", Pos: m.Pos(), Err: err}
	}
	def.Name = name

	for _, f := range []struct {
		label string
		dst   *int
	}{
		{"iterations", &def.Iterations},
		{"periods", &def.Periods},
	} {
		fv := m.LookupPath(cue.ParsePath(f.label))
		n, err := fv.Int64()
		if err != nil {
			return &LoadError{Code: ErrCodeModel, Message: fmt.Sprintf("model.%s must be an integer", f.label), Pos: posOr(fv, m), Err: err}
		}
		if n < 0 {
			return &LoadError{Code: ErrCodeModel, Message: fmt.Sprintf("model.%s must not be negative", f.label), Pos: fv.Pos()}
		}
		*f.dst = int(n)
	}

	if sv := m.LookupPath(cue.ParsePath("seed")); sv.Exists() {
		seed, err := sv.Uint64()
		if err != nil {
			return &LoadError{Code: ErrCodeModel, Message: "model.seed must be a non-negative integer", Pos: sv.Pos(), Err: err}
		}
		def.Seed = seed
	}
	return nil
}

func decodeComponents(v cue.Value, def *Definition) error {
	cv := v.LookupPath(cue.ParsePath("components"))
	if !cv.Exists() {
		return &LoadError{Code: ErrCodeComponents, Message: "components block is required", Pos: v.Pos()}
	}
	iter, err := cv.Fields()
	if err != nil {
		return &LoadError{Code: ErrCodeComponents, Message: "components must be a struct", Pos: cv.Pos(), Err: err}
	}
	for iter.Next() {
		name, val := iter.Label(), iter.Value()

		kind, err := val.LookupPath(cue.ParsePath("kind")).String()
		if err != nil {
			return &LoadError{Code: ErrCodeComponents, Message: fmt.Sprintf("components.%s.kind must be a string", name), Pos: val.Pos(), Err: err}
		}

		params := map[string]any{}
		if pv := val.LookupPath(cue.ParsePath("params")); pv.Exists() {
			if err := pv.Decode(&params); err != nil {
				return &LoadError{Code: ErrCodeComponents, Message: fmt.Sprintf("components.%s.params must be a concrete struct", name), Pos: pv.Pos(), Err: err}
			}
		}

		def.Components = append(def.Components, ComponentDef{Name: name, Kind: kind, Params: params, Pos: val.Pos()})
	}
	if len(def.Components) == 0 {
		return &LoadError{Code: ErrCodeComponents, Message: "at least one component is required", Pos: cv.Pos()}
	}
	return nil
}

func decodeWiring(v cue.Value, def *Definition) error {
	wv := v.LookupPath(cue.ParsePath("wiring"))
	if !wv.Exists() {
		return nil
	}
	list, err := wv.List()
	if err != nil {
		return &LoadError{Code: ErrCodeWiring, Message: "wiring must be a list", Pos: wv.Pos(), Err: err}
	}
	for i := 0; list.Next(); i++ {
		entry := list.Value()
		from, err := entry.LookupPath(cue.ParsePath("from")).String()
		if err != nil {
			return &LoadError{Code: ErrCodeWiring, Message: fmt.Sprintf("wiring[%d].from must be a string", i), Pos: entry.Pos(), Err: err}
		}
		to, err := entry.LookupPath(cue.ParsePath("to")).String()
		if err != nil {
			return &LoadError{Code: ErrCodeWiring, Message: fmt.Sprintf("wiring[%d].to must be a string", i), Pos: entry.Pos(), Err: err}
		}

		sender, source, ok := splitEndpoint(from)
		if !ok {
			return &LoadError{Code: ErrCodeWiring, Message: fmt.Sprintf("wiring[%d].from %q must be component.channel", i, from), Pos: entry.Pos()}
		}
		receiver, target, ok := splitEndpoint(to)
		if !ok {
			return &LoadError{Code: ErrCodeWiring, Message: fmt.Sprintf("wiring[%d].to %q must be component.channel", i, to), Pos: entry.Pos()}
		}
		def.Wiring = append(def.Wiring, WireDef{
			Sender:   sender,
			Source:   source,
			Receiver: receiver,
			Target:   target,
			Pos:      entry.Pos(),
		})
	}
	return nil
}

// splitEndpoint splits "component.channel" at the last dot.
func splitEndpoint(s string) (component, channel string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func cueLoadError(code, context string, err error) *LoadError {
	le := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", context, err), Err: err}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}

func posOr(v, fallback cue.Value) token.Pos {
	if v.Exists() {
		return v.Pos()
	}
	return fallback.Pos()
}
