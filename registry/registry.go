// Package registry holds the process-wide fetcher and scalar pools used by
// code that registers implementations from init functions.
package registry

import (
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/provider"
	"github.com/Protocol-Lattice/slingql/scalar"
)

var (
	globalFetchers = fetcher.NewRegistry()
	globalScalars  = scalar.NewRegistry()
)

// Fetchers returns the global fetcher pool.
func Fetchers() *fetcher.Registry {
	return globalFetchers
}

// Scalars returns the global scalar converter pool.
func Scalars() *scalar.Registry {
	return globalScalars
}

// RegisterFetcher registers a fetcher in the global pool under name, tagged
// with the origin it declares.
func RegisterFetcher(name, origin string, f fetcher.Fetcher) (provider.Registration, error) {
	return globalFetchers.Register(name, origin, f)
}

// RegisterFetcherFunc is RegisterFetcher for plain functions.
func RegisterFetcherFunc(name, origin string, f func(*fetcher.Env) (interface{}, error)) (provider.Registration, error) {
	return RegisterFetcher(name, origin, fetcher.Func(f))
}

// RegisterScalar registers converters in the global pool under their own names.
func RegisterScalar(origin string, converters ...scalar.Converter) error {
	return scalar.Register(globalScalars, origin, converters...)
}

// Unregister removes a fetcher registration from the global pool.
func Unregister(reg provider.Registration) bool {
	return globalFetchers.Unregister(reg)
}
