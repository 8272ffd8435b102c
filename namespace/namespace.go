// Package namespace implements the ownership rule for reserved fetcher and
// scalar names.
package namespace

import (
	"fmt"
	"strings"
)

const (
	// ReservedNamePrefix marks names that only trusted implementations may claim.
	ReservedNamePrefix = "sling/"

	// TrustedOriginPrefix is the origin prefix required for reserved names.
	TrustedOriginPrefix = "org.apache.sling."
)

// DefaultRule reserves ReservedNamePrefix for TrustedOriginPrefix.
var DefaultRule = Rule{
	ReservedPrefix: ReservedNamePrefix,
	TrustedPrefix:  TrustedOriginPrefix,
}

// Rule ties a reserved name prefix to the origin prefix allowed to use it.
// An empty ReservedPrefix reserves nothing.
type Rule struct {
	ReservedPrefix string `yaml:"reservedPrefix"`
	TrustedPrefix  string `yaml:"trustedPrefix"`
}

// IsReserved reports whether name falls in the reserved namespace.
func (r Rule) IsReserved(name string) bool {
	return r.ReservedPrefix != "" && strings.HasPrefix(name, r.ReservedPrefix)
}

// Permits reports whether an implementation declared with origin may be
// bound to name.
func (r Rule) Permits(name, origin string) bool {
	if !r.IsReserved(name) {
		return true
	}
	return strings.HasPrefix(origin, r.TrustedPrefix)
}

// Validate checks that the rule is usable as deploy-time configuration.
func (r Rule) Validate() error {
	if r.ReservedPrefix != "" && r.TrustedPrefix == "" {
		return fmt.Errorf("reserved prefix %q has no trusted origin prefix", r.ReservedPrefix)
	}
	return nil
}

// String renders the rule for diagnostics.
func (r Rule) String() string {
	if r.ReservedPrefix == "" {
		return "no reserved namespace"
	}
	return fmt.Sprintf("%q reserved for %q", r.ReservedPrefix, r.TrustedPrefix)
}
