// Copyright 2026 FoodBlock Protocol
//
// Block create, get, tombstone, and agent draft endpoints
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/agent"
	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"protocol": "foodblock",
		"version":  block.ProtocolVersion,
		"server":   s.cfg.ServerName,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).String(),
	})
}

// createBlockRequest accepts a {type,state,refs} triple, optionally with
// hash, author_hash, signature and protocol_version as sibling top-level
// fields (§4.4.2 step 1). Without author_hash the block is unauthored; the
// server always computes the hash itself. The nested {"foodblock": {...}}
// shape of block.Wrapper is not read.
type createBlockRequest struct {
	Type  string         `json:"type"`
	State map[string]any `json:"state"`
	Refs  map[string]any `json:"refs"`

	Hash            string `json:"hash"`
	AuthorHash      string `json:"author_hash"`
	Signature       string `json:"signature"`
	ProtocolVersion string `json:"protocol_version"`
}

// handleCreateBlock implements POST /blocks (§4.4.2). Signature
// verification only happens when author_hash resolves to a known actor;
// an unresolvable author is never itself a rejection reason (§4.4.2 step
// 1, §8.1 invariant on open authorship).
func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}

	b := &block.Block{Type: req.Type, State: req.State, Refs: req.Refs}
	if b.State == nil {
		b.State = map[string]any{}
	}
	if b.Refs == nil {
		b.Refs = map[string]any{}
	}

	hash, err := block.Hash(b.Type, b.State, b.Refs)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	b.Hash = hash
	if req.Hash != "" && req.Hash != hash {
		writeError(w, fberr.ErrHashMismatch)
		return
	}

	if req.AuthorHash != "" && req.Signature != "" {
		keys, err := s.repos.Blocks.ResolveAuthorKeys(r.Context(), req.AuthorHash)
		if err == nil && len(keys.SigningPublicKey) > 0 {
			wrapper := &block.Wrapper{FoodBlock: *b, AuthorHash: req.AuthorHash, Signature: req.Signature, ProtocolVersion: req.ProtocolVersion}
			ok, verr := block.Verify(wrapper, keys.SigningPublicKey)
			if verr != nil {
				writeErrorMsg(w, fberr.KindBadRequest, "malformed signature")
				return
			}
			if !ok {
				writeError(w, fberr.ErrInvalidSignature)
				return
			}
		}
	}

	identity, err := s.enforceAgentGate(r, b)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := s.repos.Blocks.Insert(r.Context(), b, req.AuthorHash, req.Signature, req.ProtocolVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"block":  outcome.Block,
		"exists": outcome.Exists,
		"fork":   outcome.Fork,
	}
	if identity != nil && !outcome.Exists {
		if confirmed := s.autoApproveDraft(r, b, *identity); confirmed != nil {
			resp["confirmed"] = confirmed
		}
	}
	status := http.StatusCreated
	if outcome.Exists {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// enforceAgentGate applies the §4.7 permission gate when the block being
// created names an agent via refs.agent. A block with no agent ref is
// never subject to the gate. Returns the agent's identity on success so
// the caller can drive auto-approval without a second lookup.
func (s *Server) enforceAgentGate(r *http.Request, b *block.Block) (*agent.Identity, error) {
	agentHash, ok := b.Refs["agent"].(string)
	if !ok || agentHash == "" {
		return nil, nil
	}
	agentRec, err := s.repos.Blocks.GetByHash(r.Context(), agentHash)
	if err != nil {
		if fberr.KindOf(err) == fberr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	identity := agent.IdentityFromState(agentRec.Hash, agentRec.State, agentRec.Refs)
	if err := agent.CheckPermission(identity, b.Type, b.State, rateCounter{query: s.repos.Query}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// autoApproveDraft implements the system side of the §4.7 draft/approve
// lifecycle: when draft's amount falls under the agent's
// auto_approve_under threshold, the server itself emits the confirmed
// successor rather than waiting on an operator. Errors building or
// inserting the confirmation are logged and otherwise swallowed — the
// draft itself was already accepted and remains available for explicit
// approval via POST /blocks/:hash/approve.
func (s *Server) autoApproveDraft(r *http.Request, draft *block.Block, identity agent.Identity) *store.Record {
	isDraft, _ := draft.State["draft"].(bool)
	if !isDraft || !agent.ShouldAutoApprove(identity, draft.State) {
		return nil
	}
	confirmed, err := agent.ConfirmDraft(draft, identity.Hash)
	if err != nil {
		s.logger.Warnf("build auto-approval for draft %s: %v", draft.Hash, err)
		return nil
	}
	outcome, err := s.repos.Blocks.Insert(r.Context(), confirmed, "", "", "")
	if err != nil {
		s.logger.Warnf("insert auto-approval for draft %s: %v", draft.Hash, err)
		return nil
	}
	return outcome.Block
}

func (s *Server) respondOutcome(w http.ResponseWriter, outcome *store.InsertOutcome) {
	status := http.StatusCreated
	if outcome.Exists {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"block":  outcome.Block,
		"exists": outcome.Exists,
		"fork":   outcome.Fork,
	})
}

// handleApproveDraft implements POST /blocks/:hash/approve (§4.7): an
// operator's explicit approval of an agent's draft, building the same
// confirmed successor the system emits automatically on auto-approval.
func (s *Server) handleApproveDraft(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	draftRec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	agentHash, ok := draftRec.Refs["agent"].(string)
	if !ok || agentHash == "" {
		writeErrorMsg(w, fberr.KindBadRequest, "block is not an agent draft")
		return
	}
	draft := &block.Block{Hash: draftRec.Hash, Type: draftRec.Type, State: draftRec.State, Refs: draftRec.Refs}
	confirmed, err := agent.ConfirmDraft(draft, agentHash)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	outcome, err := s.repos.Blocks.Insert(r.Context(), confirmed, "", "", "")
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondOutcome(w, outcome)
}

// handleRejectDraft implements POST /blocks/:hash/reject (§4.7): an
// operator marking a draft rejected. The draft itself stays in the graph,
// non-head.
func (s *Server) handleRejectDraft(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	draftRec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	draft := &block.Block{Hash: draftRec.Hash, Type: draftRec.Type, State: draftRec.State, Refs: draftRec.Refs}
	reason := r.URL.Query().Get("reason")
	rejected, err := agent.RejectDraft(draft, reason)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	outcome, err := s.repos.Blocks.Insert(r.Context(), rejected, "", "", "")
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondOutcome(w, outcome)
}

// handleBatchInsert implements POST /blocks/batch (§4.4.4): an array of the
// same flat objects POST /blocks takes (nested {"foodblock": {...}}
// wrappers are not read), inserted in dependency order regardless of
// submission order.
func (s *Server) handleBatchInsert(w http.ResponseWriter, r *http.Request) {
	var reqs []createBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}

	items := make([]store.BatchItem, 0, len(reqs))
	for _, req := range reqs {
		b := &block.Block{Type: req.Type, State: req.State, Refs: req.Refs}
		if b.State == nil {
			b.State = map[string]any{}
		}
		if b.Refs == nil {
			b.Refs = map[string]any{}
		}
		hash, err := block.Hash(b.Type, b.State, b.Refs)
		if err != nil {
			writeErrorMsg(w, fberr.KindBadRequest, err.Error())
			return
		}
		b.Hash = hash
		items = append(items, store.BatchItem{
			Block:           b,
			AuthorHash:      req.AuthorHash,
			Signature:       req.Signature,
			ProtocolVersion: req.ProtocolVersion,
		})
	}

	result, err := s.repos.Blocks.InsertBatch(r.Context(), items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleTombstone implements DELETE /blocks/:hash as the §4.4.3 tombstone
// convenience: building and inserting an observe.tombstone update over
// the named hash, unauthored (erasure via a real block, not a hard
// delete).
func (s *Server) handleTombstone(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}

	reason := r.URL.Query().Get("reason")
	state := map[string]any{}
	if reason != "" {
		state["reason"] = reason
	}
	refs := map[string]any{"target": rec.Hash}
	tomb, err := block.Update(rec.Hash, "observe.tombstone", state, refs)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}

	outcome, err := s.repos.Blocks.Insert(r.Context(), tomb, "", "", "")
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondOutcome(w, outcome)
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	f := parseListFilter(r)
	recs, err := s.repos.Query.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": recs, "count": len(recs)})
}

// defaultListLimit and maxListLimit bound GET /blocks' limit param (§6.1:
// "limit (1..100, default 50)").
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func parseListFilter(r *http.Request) store.ListFilter {
	q := r.URL.Query()
	f := store.ListFilter{
		Type:       q.Get("type"),
		RefRole:    q.Get("ref"),
		RefValue:   q.Get("ref_value"),
		AuthorHash: q.Get("author"),
		HeadsOnly:  q.Get("heads") == "true",
		Limit:      defaultListLimit,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n > 0 && n <= maxListLimit {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			f.Offset = n
		}
	}
	return f
}
