// Copyright 2026 FoodBlock Protocol
//
// Trust score input projection
// Package projection computes read-only derived views over the block
// graph (§4.11): trust scores and the vocabulary/schema/template registry. Nothing here is ever written back into block
// state — a projection is recomputed on demand from the store.
package projection

import (
	"context"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/store"
)

// TrustWeights are the §4.11 default weights, overridable by an
// observe.trust_policy block.
type TrustWeights struct {
	Authority float64
	Reviews   float64
	Depth     float64
	Orders    float64
	Age       float64
}

// DefaultTrustWeights are the §4.11 defaults.
var DefaultTrustWeights = TrustWeights{Authority: 3.0, Reviews: 1.0, Depth: 2.0, Orders: 1.5, Age: 0.5}

// TrustInputs are the five per-actor signals §4.11 names, already
// extracted from the graph.
type TrustInputs struct {
	ValidAuthorityCerts     int
	IndependentPeerReviews  float64 // pre-weighted by avg(rating)/5
	EffectiveChainDepth     int
	VerifiedOrderCount      int
	AccountAgeDays          int
}

// Score combines TrustInputs with w into the §4.11 trust score.
func (w TrustWeights) Score(in TrustInputs) float64 {
	return w.Authority*float64(in.ValidAuthorityCerts) +
		w.Reviews*in.IndependentPeerReviews +
		w.Depth*float64(in.EffectiveChainDepth) +
		w.Orders*float64(in.VerifiedOrderCount) +
		w.Age*float64(in.AccountAgeDays)
}

// ComputeInputs' recognizedAuthorities and recognizedProcessors are
// provided by the caller (the HTTP layer takes them from server config);
// this package has no opinion on which actors are authoritative.
type Resolver struct {
	query *store.QueryRepository
}

func NewResolver(query *store.QueryRepository) *Resolver {
	return &Resolver{query: query}
}

// ComputeInputs gathers the five §4.11 signals for actorHash. recognizedAuthorities
// and recognizedProcessors name the actor hashes trusted as certification
// issuers and order processors, respectively.
func (r *Resolver) ComputeInputs(ctx context.Context, actorHash string, genesisCreatedAt time.Time, recognizedAuthorities, recognizedProcessors map[string]bool) (TrustInputs, error) {
	var in TrustInputs

	certs, err := r.query.List(ctx, store.ListFilter{Type: "observe.certification", Limit: 500})
	if err != nil {
		return in, err
	}
	now := time.Now()
	for _, c := range certs {
		author := ""
		if c.AuthorHash != nil {
			author = *c.AuthorHash
		}
		if !recognizedAuthorities[author] {
			continue
		}
		subject, _ := c.Refs["subject"].(string)
		if subject != actorHash {
			continue
		}
		validUntil, ok := parseTime(c.State["valid_until"])
		if ok && validUntil.After(now) {
			in.ValidAuthorityCerts++
		}
	}

	reviews, err := r.query.List(ctx, store.ListFilter{Type: "observe.review", Limit: 500})
	if err != nil {
		return in, err
	}
	var ratingSum float64
	var ratingCount int
	reviewerConnections := map[string]int{}
	for _, rv := range reviews {
		subject, _ := rv.Refs["subject"].(string)
		if subject != actorHash {
			continue
		}
		author := ""
		if rv.AuthorHash != nil {
			author = *rv.AuthorHash
		}
		if author == actorHash {
			continue // exclude self-reviews
		}
		reviewerConnections[author]++
	}
	for _, rv := range reviews {
		subject, _ := rv.Refs["subject"].(string)
		if subject != actorHash {
			continue
		}
		author := ""
		if rv.AuthorHash != nil {
			author = *rv.AuthorHash
		}
		if author == actorHash || reviewerConnections[author] > highConnectionDensity {
			continue
		}
		if rating, ok := rv.State["rating"].(float64); ok {
			ratingSum += rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		in.IndependentPeerReviews = (ratingSum / float64(ratingCount)) / 5.0
	}

	forward, err := r.query.Forward(ctx, actorHash)
	if err != nil {
		return in, err
	}
	authors := map[string]bool{}
	for _, f := range forward {
		if f.AuthorHash != nil {
			authors[*f.AuthorHash] = true
		}
	}
	in.EffectiveChainDepth = len(authors)

	orders, err := r.query.List(ctx, store.ListFilter{Type: "transfer.order", Limit: 500})
	if err != nil {
		return in, err
	}
	for _, o := range orders {
		adapterRef, _ := o.State["adapter_ref"].(string)
		if adapterRef != "" && recognizedProcessors[adapterRef] {
			in.VerifiedOrderCount++
		}
	}

	ageDays := int(now.Sub(genesisCreatedAt).Hours() / 24)
	if ageDays > 365 {
		ageDays = 365
	}
	if ageDays < 0 {
		ageDays = 0
	}
	in.AccountAgeDays = ageDays

	return in, nil
}

// highConnectionDensity excludes reviewers who have reviewed the same
// subject an implausible number of times, a crude proxy for the §4.11
// "high-connection-density reviewers" exclusion.
const highConnectionDensity = 3

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
