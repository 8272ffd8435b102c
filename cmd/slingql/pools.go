package main

import (
	"github.com/hashicorp/go-hclog"

	"github.com/Protocol-Lattice/slingql/builtin"
	"github.com/Protocol-Lattice/slingql/config"
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/scalar"
	"github.com/Protocol-Lattice/slingql/scripted"
)

// pools holds everything names can resolve to.
type pools struct {
	fetchers *fetcher.Registry
	scalars  *scalar.Registry
	scripts  *scripted.Provider
}

func newPools(cfg *config.Config, logger hclog.Logger) (*pools, error) {
	p := &pools{
		fetchers: fetcher.NewRegistry(),
		scalars:  scalar.NewRegistry(),
		scripts:  scripted.New(logger.Named("scripts")),
	}
	if _, err := builtin.Register(p.fetchers); err != nil {
		return nil, err
	}
	if err := builtin.RegisterScalars(p.scalars); err != nil {
		return nil, err
	}
	if len(cfg.Scripts) > 0 {
		if err := p.scripts.LoadGlob(cfg.Scripts...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *pools) fetcherSelector(cfg *config.Config) *fetcher.Selector {
	return fetcher.NewSelector(p.fetchers, p.scripts, cfg.ResolveOptions()...)
}

func (p *pools) scalarSelector(cfg *config.Config) *scalar.Selector {
	return scalar.NewSelector(p.scalars, cfg.ResolveOptions()...)
}
