// Copyright 2026 FoodBlock Protocol
//
// Vocabulary, schema, and template projections
package projection

import (
	"context"

	"github.com/foodxdevelopment/foodblock/internal/store"
)

// Registry resolves the content-addressed vocabulary/schema/template
// blocks a server carries (§4.11 "Schema/vocabulary/template registry.
// Content-addressed blocks discovered by type query").
type Registry struct {
	query *store.QueryRepository
}

func NewRegistry(query *store.QueryRepository) *Registry {
	return &Registry{query: query}
}

// Vocabularies returns every observe.vocabulary head block.
func (r *Registry) Vocabularies(ctx context.Context) ([]*store.Record, error) {
	return r.query.Heads(ctx, "observe.vocabulary")
}

// Schemas returns every observe.schema head block.
func (r *Registry) Schemas(ctx context.Context) ([]*store.Record, error) {
	return r.query.Heads(ctx, "observe.schema")
}

// Templates returns every observe.template head block.
func (r *Registry) Templates(ctx context.Context) ([]*store.Record, error) {
	return r.query.Heads(ctx, "observe.template")
}

// TrustPolicy returns the active observe.trust_policy head, if one has
// been published, else nil.
func (r *Registry) TrustPolicy(ctx context.Context) (*store.Record, error) {
	policies, err := r.query.Heads(ctx, "observe.trust_policy")
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		return nil, nil
	}
	return policies[0], nil
}

// WeightsFromPolicy reads trust weight overrides from a trust_policy
// block's state, falling back to DefaultTrustWeights for any field not
// present.
func WeightsFromPolicy(policy *store.Record) TrustWeights {
	w := DefaultTrustWeights
	if policy == nil {
		return w
	}
	if v, ok := policy.State["authority_weight"].(float64); ok {
		w.Authority = v
	}
	if v, ok := policy.State["reviews_weight"].(float64); ok {
		w.Reviews = v
	}
	if v, ok := policy.State["depth_weight"].(float64); ok {
		w.Depth = v
	}
	if v, ok := policy.State["orders_weight"].(float64); ok {
		w.Orders = v
	}
	if v, ok := policy.State["age_weight"].(float64); ok {
		w.Age = v
	}
	return w
}
