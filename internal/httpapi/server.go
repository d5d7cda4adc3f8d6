// Copyright 2026 FoodBlock Protocol
//
// HTTP server assembly, routing, and middleware chain
package httpapi

import (
	"context"
	"crypto/ed25519"
	"net/http"
	"strings"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/agent"
	"github.com/foodxdevelopment/foodblock/internal/config"
	"github.com/foodxdevelopment/foodblock/internal/eventbus"
	"github.com/foodxdevelopment/foodblock/internal/federation"
	"github.com/foodxdevelopment/foodblock/internal/logging"
	"github.com/foodxdevelopment/foodblock/internal/projection"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

// Server holds every dependency the HTTP handlers need. One Server backs
// one process; it is wired up once in main and handed to http.Server as
// its Handler.
type Server struct {
	cfg    *config.Config
	repos  *store.Repositories
	broker *eventbus.Broker

	fedClient  *federation.Client
	signingPub ed25519.PublicKey
	signingKey ed25519.PrivateKey
	encPub     [32]byte
	encPriv    [32]byte

	trust    *projection.Resolver
	registry *projection.Registry

	logger      *logging.Logger
	rateLimiter *rateLimiter
	startedAt   time.Time
}

// Deps bundles the constructed subsystems Server wires together.
type Deps struct {
	Config     *config.Config
	Repos      *store.Repositories
	Broker     *eventbus.Broker
	SigningPub ed25519.PublicKey
	SigningKey ed25519.PrivateKey
	EncPub     [32]byte
	EncPriv    [32]byte
}

// NewServer assembles a Server from its dependencies.
func NewServer(d Deps) *Server {
	rateLimit := d.Config.RateLimitPerMinute
	if d.Config.Test {
		rateLimit = 0 // TEST mode suppresses the rate limiter (§6.5)
	}
	return &Server{
		cfg:         d.Config,
		repos:       d.Repos,
		broker:      d.Broker,
		fedClient:   federation.NewClient(),
		signingPub:  d.SigningPub,
		signingKey:  d.SigningKey,
		encPub:      d.EncPub,
		encPriv:     d.EncPriv,
		trust:       projection.NewResolver(d.Repos.Query),
		registry:    projection.NewRegistry(d.Repos.Query),
		logger:      logging.New("HTTP", logging.ParseLevel(d.Config.LogLevel)),
		rateLimiter: newRateLimiter(rateLimit),
		startedAt:   time.Now(),
	}
}

// rateCounter adapts store.QueryRepository to agent.RateCounter, counting
// blocks whose refs.agent names the agent (§4.7 step 3).
type rateCounter struct {
	query *store.QueryRepository
}

func (c rateCounter) CountSince(agentHash string, since time.Time) (int, error) {
	recent, err := c.query.List(context.Background(), store.ListFilter{Limit: 500})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range recent {
		if rec.CreatedAt.Before(since) {
			continue
		}
		if ref, ok := rec.Refs["agent"].(string); ok && ref == agentHash {
			count++
		}
	}
	return count, nil
}

var _ agent.RateCounter = rateCounter{}

// Routes builds the full mux and wraps it with the middleware chain
// (§4.9): CORS, body-size limit, rate limit, then BASE_PATH stripping
// outermost so it runs before routing sees the path.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /blocks", s.handleCreateBlock)
	mux.HandleFunc("POST /blocks/batch", s.handleBatchInsert)
	mux.HandleFunc("POST /batch", s.handleBatchInsert)
	mux.HandleFunc("GET /blocks/{hash}", s.handleGetBlock)
	mux.HandleFunc("DELETE /blocks/{hash}", s.handleTombstone)
	mux.HandleFunc("POST /blocks/{hash}/approve", s.handleApproveDraft)
	mux.HandleFunc("POST /blocks/{hash}/reject", s.handleRejectDraft)
	mux.HandleFunc("GET /blocks", s.handleListBlocks)

	mux.HandleFunc("GET /chain/{hash}", s.handleChain)
	mux.HandleFunc("GET /tree/{hash}", s.handleTree)
	mux.HandleFunc("GET /forward/{hash}", s.handleForward)
	mux.HandleFunc("GET /heads", s.handleHeads)
	mux.HandleFunc("GET /find", s.handleFind)
	mux.HandleFunc("GET /verify/{hash}", s.handleVerify)
	mux.HandleFunc("GET /types", s.handleTypes)
	mux.HandleFunc("GET /types/{type}", s.handleTypeDetail)
	mux.HandleFunc("GET /trust/{hash}", s.handleTrust)
	mux.HandleFunc("GET /registry", s.handleRegistry)

	mux.HandleFunc("GET /stream", s.handleStream)

	mux.HandleFunc("GET /.well-known/foodblock", s.handleDiscovery)
	mux.HandleFunc("POST /.well-known/foodblock/handshake", s.handleHandshake)
	mux.HandleFunc("POST /.well-known/foodblock/push", s.handlePush)
	mux.HandleFunc("POST /.well-known/foodblock/pull", s.handlePull)

	mux.HandleFunc("POST /fb", s.handleFB)
	mux.HandleFunc("GET /explain/{hash}", s.handleExplain)
	mux.HandleFunc("POST /parse-fbn", s.handleParseFBN)
	mux.HandleFunc("GET /format/{hash}", s.handleFormat)
	mux.HandleFunc("POST /resolve-uri", s.handleResolveURI)
	mux.HandleFunc("GET /uri/{hash}", s.handleURI)

	var handler http.Handler = mux
	handler = s.bodyLimitMiddleware(handler)
	handler = s.rateLimitMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = s.basePathMiddleware(handler)
	return handler
}

// basePathMiddleware strips cfg.BasePath from the request path before
// routing, so a path-based load balancer can mount the server under a
// prefix (§4.9, §6.5 BASE_PATH).
func (s *Server) basePathMiddleware(next http.Handler) http.Handler {
	if s.cfg.BasePath == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, s.cfg.BasePath) {
			r.URL.Path = strings.TrimPrefix(r.URL.Path, s.cfg.BasePath)
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware implements the permissive CORS policy of §4.9: allow any
// origin, the methods and headers this API actually uses, and a 204 on
// preflight.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// maxBodyBytes is the §4.9 1 MiB request body cap.
const maxBodyBytes = 1 << 20

// bodyLimitMiddleware rejects bodies over 1 MiB with 413. Unlike the rate
// limiter it also applies in TEST mode.
func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBodyBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body exceeds 1 MiB limit"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
