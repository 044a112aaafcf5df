package middleware

import (
	"github.com/perimeterhq/perimeter/pkg/policy"
	"github.com/perimeterhq/perimeter/pkg/ratelimit"
)

// RouteSpec declares the admission rules for one route template
type RouteSpec struct {
	// Public routes bypass every admission stage
	Public bool

	// TenantRequired rejects requests for which no tenant can be resolved
	TenantRequired bool

	// Requirement is the policy check for the route; empty means none
	Requirement policy.Requirement

	// RateLimit overrides the pipeline default when set
	RateLimit *ratelimit.Config
}

// RouteTable maps route templates to their admission rules. Routes not in
// the table get the default spec, which is protected: an unregistered route
// can never be reached anonymously by accident.
type RouteTable struct {
	specs map[string]RouteSpec
	def   RouteSpec
}

// NewRouteTable creates a table whose default spec requires a verified
// credential and a resolved tenant
func NewRouteTable() *RouteTable {
	return &RouteTable{
		specs: make(map[string]RouteSpec),
		def:   RouteSpec{TenantRequired: true},
	}
}

// Set registers the spec for a route template
func (t *RouteTable) Set(template string, spec RouteSpec) {
	t.specs[template] = spec
}

// SetDefault replaces the spec applied to unregistered routes
func (t *RouteTable) SetDefault(spec RouteSpec) {
	t.def = spec
}

// Lookup returns the spec for a route template
func (t *RouteTable) Lookup(template string) RouteSpec {
	if spec, ok := t.specs[template]; ok {
		return spec
	}
	return t.def
}
