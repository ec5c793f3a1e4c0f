package components

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/roach88/riskflow/internal/parameter"
	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/wiring"
)

// KindClaimsGenerator draws claims per step.
const KindClaimsGenerator = "claims-generator"

// maxFrequency bounds the Poisson mean; exp(-lambda) underflows beyond ~745.
const maxFrequency = 500

// ClaimsGeneratorParams configures a claims generator.
//
// The claim count is Poisson(Frequency). Severities are lognormal(Mu, Sigma)
// unless Table is set, in which case they are drawn from its
// [value, probability] rows.
type ClaimsGeneratorParams struct {
	Frequency float64         `mapstructure:"frequency"`
	Mu        float64         `mapstructure:"mu"`
	Sigma     float64         `mapstructure:"sigma"`
	Table     *parameter.Grid `mapstructure:"table"`
}

type empirical struct {
	values     []float64
	cumulative []float64
}

func newEmpirical(g *parameter.Grid) (*empirical, error) {
	if g.Columns() != 2 {
		return nil, fmt.Errorf("severity table needs 2 columns [value, probability], got %d", g.Columns())
	}
	if g.Rows() == 0 {
		return nil, errors.New("severity table is empty")
	}
	e := &empirical{}
	total := 0.0
	for row := 0; row < g.Rows(); row++ {
		v, err := g.Float(row, 0)
		if err != nil {
			return nil, err
		}
		p, err := g.Float(row, 1)
		if err != nil {
			return nil, err
		}
		if p < 0 {
			return nil, fmt.Errorf("severity table row %d: negative probability %g", row, p)
		}
		total += p
		e.values = append(e.values, v)
		e.cumulative = append(e.cumulative, total)
	}
	if math.Abs(total-1) > 1e-9 {
		return nil, fmt.Errorf("severity table probabilities sum to %g, expected 1", total)
	}
	return e, nil
}

func (e *empirical) draw(rng *rand.Rand) float64 {
	u := rng.Float64()
	for i, c := range e.cumulative {
		if u < c {
			return e.values[i]
		}
	}
	return e.values[len(e.values)-1]
}

// poisson draws with Knuth's multiplication method.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	n := 0
	for p := rng.Float64(); p > limit; p *= rng.Float64() {
		n++
	}
	return n
}

// NewClaimsGenerator builds a claims-generator component emitting *Claim on
// outClaims. It collects the number of claims drawn as "frequency".
func NewClaimsGenerator(name string, params map[string]any) (*wiring.Component, error) {
	var p ClaimsGeneratorParams
	if err := decodeParams(KindClaimsGenerator, name, params, &p); err != nil {
		return nil, err
	}
	if p.Frequency < 0 || p.Frequency > maxFrequency {
		return nil, &ParamError{Kind: KindClaimsGenerator, Component: name,
			Err: fmt.Errorf("frequency %g outside [0, %d]", p.Frequency, maxFrequency)}
	}
	if p.Sigma < 0 {
		return nil, &ParamError{Kind: KindClaimsGenerator, Component: name, Err: fmt.Errorf("sigma %g is negative", p.Sigma)}
	}

	severity := func(rng *rand.Rand) float64 {
		return math.Exp(p.Mu + p.Sigma*rng.NormFloat64())
	}
	if p.Table != nil {
		table, err := newEmpirical(p.Table)
		if err != nil {
			return nil, &ParamError{Kind: KindClaimsGenerator, Component: name, Err: err}
		}
		severity = table.draw
	}

	c := wiring.NewComponent(name, KindClaimsGenerator, wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		n := poisson(step.Rand, p.Frequency)
		for i := 0; i < n; i++ {
			if err := step.Emit(ChannelOutClaims, &Claim{Amount: severity(step.Rand)}); err != nil {
				return err
			}
		}
		step.Collect(result.Observation{Field: "frequency", Collector: result.CollectorSingle, Value: result.Float(float64(n))})
		return nil
	}))
	wiring.Out[*Claim](c, ChannelOutClaims)
	return c, nil
}
