// Copyright 2026 FoodBlock Protocol
//
// Trust score and registry endpoints
package httpapi

import (
	"net/http"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
	"github.com/foodxdevelopment/foodblock/internal/projection"
)

const trustGenesisWalkLimit = 100000

// handleTrust implements GET /trust/:hash (§4.11): the read-only trust
// projection for an actor, parameterized by the published
// observe.trust_policy block (or defaults) and the server's configured
// recognized authorities/processors.
func (s *Server) handleTrust(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")

	// The genesis lookup needs the true start of the chain, not the
	// depth-capped page GET /chain/:hash returns, so it walks with a much
	// larger bound than the public API exposes.
	chain, err := s.repos.Query.Chain(r.Context(), hash, trustGenesisWalkLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(chain) == 0 {
		writeError(w, fberr.ErrNotFound)
		return
	}
	genesis := chain[len(chain)-1]

	policy, err := s.registry.TrustPolicy(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	weights := projection.WeightsFromPolicy(policy)

	authorities := toSet(s.cfg.RecognizedAuthorities)
	processors := toSet(s.cfg.RecognizedProcessors)

	inputs, err := s.trust.ComputeInputs(r.Context(), hash, genesis.CreatedAt, authorities, processors)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"actor": hash,
		"inputs": map[string]any{
			"valid_authority_certs":    inputs.ValidAuthorityCerts,
			"independent_peer_reviews": inputs.IndependentPeerReviews,
			"effective_chain_depth":    inputs.EffectiveChainDepth,
			"verified_order_count":     inputs.VerifiedOrderCount,
			"account_age_days":         inputs.AccountAgeDays,
		},
		"score": weights.Score(inputs),
	})
}

// handleRegistry implements GET /registry (§4.11): the bundled
// vocabulary/schema/template snapshot discovered by type query.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	vocabs, err := s.registry.Vocabularies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	schemas, err := s.registry.Schemas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	templates, err := s.registry.Templates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vocabularies": vocabs,
		"schemas":      schemas,
		"templates":    templates,
	})
}

func toSet(hashes []string) map[string]bool {
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = true
	}
	return set
}
