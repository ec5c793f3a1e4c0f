package components

import (
	"context"
	"fmt"

	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/wiring"
)

// Kind names of the contract and collection components.
const (
	KindQuotaShare = "quota-share"
	KindAggregator = "aggregator"
)

// QuotaShareParams configures a proportional cession.
type QuotaShareParams struct {
	// Share is the ceded fraction, in [0, 1].
	Share float64 `mapstructure:"share"`
}

// NewQuotaShare cedes Share of every incoming claim. Each claim on inClaims
// yields one ceded claim on outCeded and one net claim on outNet, in input
// order.
func NewQuotaShare(name string, params map[string]any) (*wiring.Component, error) {
	var p QuotaShareParams
	if err := decodeParams(KindQuotaShare, name, params, &p); err != nil {
		return nil, err
	}
	if p.Share < 0 || p.Share > 1 {
		return nil, &ParamError{Kind: KindQuotaShare, Component: name, Err: fmt.Errorf("share %g outside [0, 1]", p.Share)}
	}

	c := wiring.NewComponent(name, KindQuotaShare, wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		ceded, net := step.Out(ChannelOutCeded), step.Out(ChannelOutNet)
		for _, pk := range step.In(ChannelInClaims).All() {
			amount := pk.(*Claim).Amount
			if err := ceded.Append(&Claim{Amount: amount * p.Share}); err != nil {
				return err
			}
			if err := net.Append(&Claim{Amount: amount * (1 - p.Share)}); err != nil {
				return err
			}
		}
		return nil
	}))
	wiring.In[*Claim](c, ChannelInClaims)
	wiring.Out[*Claim](c, ChannelOutCeded)
	wiring.Out[*Claim](c, ChannelOutNet)
	return c, nil
}

// AggregatorParams configures an aggregator.
type AggregatorParams struct {
	// Single additionally collects every claim amount as "claim".
	Single bool `mapstructure:"single"`
}

// NewAggregator sums the claims of a step. It collects "ultimate" and
// "count" under the AGGREGATED collector, and with Single set each amount
// as "claim" under SINGLE, indexed by position.
func NewAggregator(name string, params map[string]any) (*wiring.Component, error) {
	var p AggregatorParams
	if err := decodeParams(KindAggregator, name, params, &p); err != nil {
		return nil, err
	}

	c := wiring.NewComponent(name, KindAggregator, wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		in := step.In(ChannelInClaims)
		total := 0.0
		for i, pk := range in.All() {
			amount := pk.(*Claim).Amount
			total += amount
			if p.Single {
				step.Collect(result.Observation{
					Field:      "claim",
					Collector:  result.CollectorSingle,
					Value:      result.Float(amount),
					ValueIndex: i,
				})
			}
		}
		step.Collect(result.Observation{Field: "ultimate", Value: result.Float(total)})
		step.Collect(result.Observation{Field: "count", Value: result.Float(float64(in.Len()))})
		return nil
	}))
	wiring.In[*Claim](c, ChannelInClaims)
	return c, nil
}
