// Copyright 2026 FoodBlock Protocol
//
// Database-backed integration tests for the HTTP API
package httpapi

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/config"
	"github.com/foodxdevelopment/foodblock/internal/envelope"
	"github.com/foodxdevelopment/foodblock/internal/eventbus"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

// Exercised against a real Postgres the same way internal/store's own
// tests are, via a TestMain-gated integration suite.
var testRepos *store.Repositories

func TestMain(m *testing.M) {
	connStr := os.Getenv("FOODBLOCK_TEST_DB")
	if connStr == "" {
		os.Exit(0)
	}
	client, err := store.NewClient(connStr)
	if err != nil {
		panic("connect to test database: " + err.Error())
	}
	if err := client.MigrateUp(context.Background()); err != nil {
		panic("migrate test database: " + err.Error())
	}
	testRepos = store.NewRepositories(client)

	code := m.Run()
	client.Close()
	os.Exit(code)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if testRepos == nil {
		t.Skip("test database not configured")
	}
	signPub, signPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate signing key: %v", err)
	}
	encPub, encPriv, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate encryption key: %v", err)
	}

	srv := NewServer(Deps{
		Config:     &config.Config{Test: true, ServerURL: "https://test.example", ServerName: "test-node"},
		Repos:      testRepos,
		Broker:     eventbus.NewBroker(),
		SigningPub: signPub,
		SigningKey: signPriv,
		EncPub:     encPub,
		EncPriv:    encPriv,
	})
	return httptest.NewServer(srv.Routes())
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func getJSON(t *testing.T, ts *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestCreateAndGetBlock(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, created := postJSON(t, ts, "/blocks", map[string]any{
		"type":  "substance.product",
		"state": map[string]any{"name": "apple"},
		"refs":  map[string]any{},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got status %d, body %v", resp.StatusCode, created)
	}
	hash := createdHash(t, created)

	resp, fetched := getJSON(t, ts, "/blocks/"+hash)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: got status %d, body %v", resp.StatusCode, fetched)
	}
	if fetched["hash"] != hash {
		t.Errorf("got hash %v, want %v", fetched["hash"], hash)
	}
}

func createdHash(t *testing.T, body map[string]any) string {
	t.Helper()
	block, ok := body["block"].(map[string]any)
	if !ok {
		t.Fatalf("expected a block object in the response, got %v", body)
	}
	hash, _ := block["hash"].(string)
	if hash == "" {
		t.Fatalf("expected a hash on the created block, got %v", block)
	}
	return hash
}

func TestCreateBlockRejectsHashMismatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, body := postJSON(t, ts, "/blocks", map[string]any{
		"type":  "substance.product",
		"state": map[string]any{"name": "pear"},
		"refs":  map[string]any{},
		"hash":  "0000000000000000000000000000000000000000000000000000000000000",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400, body %v", resp.StatusCode, body)
	}
}

func TestGetUnknownBlockReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, body := getJSON(t, ts, "/blocks/"+"deadbeef")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404, body %v", resp.StatusCode, body)
	}
}

func TestTombstoneErasesTargetState(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	_, created := postJSON(t, ts, "/blocks", map[string]any{
		"type":  "substance.product",
		"state": map[string]any{"name": "to-delete"},
		"refs":  map[string]any{},
	})
	hash := createdHash(t, created)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/blocks/"+hash, nil)
	if err != nil {
		t.Fatalf("build DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want 200/201", resp.StatusCode)
	}

	_, fetched := getJSON(t, ts, "/blocks/"+hash)
	state, _ := fetched["state"].(map[string]any)
	if tombstoned, _ := state["tombstoned"].(bool); !tombstoned {
		t.Errorf("expected the target block's state to be erased, got %v", fetched)
	}
}

func TestFBEntryPointCreatesBlocks(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, result := postJSON(t, ts, "/fb", map[string]any{
		"text": "log a batch of 50kg apples",
	})
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d, body %v", resp.StatusCode, result)
	}
	if _, ok := result["primary"]; !ok {
		t.Errorf("expected a primary block in the response, got %v", result)
	}
}

func TestDiscoveryDocumentVerifies(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, doc := getJSON(t, ts, "/.well-known/foodblock")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, body %v", resp.StatusCode, doc)
	}
	if doc["name"] != "test-node" {
		t.Errorf("got name %v, want test-node", doc["name"])
	}
}

func TestTrustEndpointComputesScore(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	_, created := postJSON(t, ts, "/blocks", map[string]any{
		"type":  "actor.agent",
		"state": map[string]any{"name": "test-actor"},
		"refs":  map[string]any{},
	})
	hash := createdHash(t, created)

	resp, body := getJSON(t, ts, "/trust/"+hash)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, body %v", resp.StatusCode, body)
	}
	if body["actor"] != hash {
		t.Errorf("got actor %v, want %v", body["actor"], hash)
	}
	if _, ok := body["score"]; !ok {
		t.Errorf("expected a score field, got %v", body)
	}
}

func TestRegistryEndpointListsBuckets(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, body := getJSON(t, ts, "/registry")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, body %v", resp.StatusCode, body)
	}
	for _, key := range []string{"vocabularies", "schemas", "templates"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected key %q in registry response, got %v", key, body)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, body := getJSON(t, ts, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, body %v", resp.StatusCode, body)
	}
	if body["status"] != "ok" {
		t.Errorf("got status field %v, want ok", body["status"])
	}
}
