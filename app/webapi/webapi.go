// Package webapi provides a web API over the classification engine.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/rss-sniffer/lib/linear"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

//go:generate moq --out mocks/checker.go --pkg mocks --with-resets --skip-ensure . Checker
//go:generate moq --out mocks/profile_getter.go --pkg mocks --with-resets --skip-ensure . ProfileGetter
//go:generate moq --out mocks/entries_store.go --pkg mocks --with-resets --skip-ensure . EntriesStore

const (
	defaultListLimit = 50
	defaultTopLimit  = 20
)

// Server is a web API server.
type Server struct {
	Config
	logLock sync.Mutex // serializes writes to EntryLog
}

// Config defines server parameters
type Config struct {
	Version     string        // version to show in headers
	ListenAddr  string        // listen address
	Engine      Checker       // classification engine
	Profiles    ProfileGetter // profile lookup, optional
	Entries     EntriesStore  // durable log of classified entries, optional
	EntryLog    io.Writer     // json-lines log of classified entries, optional
	AuthPasswd  string        // basic auth password for user "rss-sniffer", empty disables auth
	RateLimit   float64       // requests per second per client, 0 disables limiter
	MaxBodySize int64         // max request size, default 64k
	MaxEntries  int           // max entries returned by /entries, default 1000
}

// Checker is a classification engine interface, satisfied by sniffer.Engine
type Checker interface {
	Check(ctx context.Context, req textcheck.Request) textcheck.Entry
	LastEntries(n int) []textcheck.Entry
	Model() (linear.Model, bool)
}

// ProfileGetter returns account profile or nil, satisfied by profile.Cache
type ProfileGetter interface {
	Get(ctx context.Context, identity string) *textcheck.Profile
}

// EntriesStore is a durable store of classified entries, satisfied by storage.Entries
type EntriesStore interface {
	Write(ctx context.Context, entries ...textcheck.Entry) error
	Read(ctx context.Context, limit int) ([]textcheck.Entry, error)
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 64 * 1024
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	return &Server{Config: config}
}

// Run starts server and accepts requests to classify texts.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.router(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second, WriteTimeout: 60 * time.Second, IdleTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

// router makes the handler with all middlewares and routes
func (s *Server) router() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.Throttle(1000))
	router.Use(rest.AppInfo("rss-sniffer", "umputun", s.Version), rest.Ping)
	if s.RateLimit > 0 {
		lmt := tollbooth.NewLimiter(s.RateLimit, nil)
		lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
		router.Use(tollbooth.HTTPMiddleware(lmt))
	}
	router.Use(rest.SizeLimit(s.MaxBodySize))
	return s.routes(router)
}

func (s *Server) routes(router *routegroup.Bundle) *routegroup.Bundle {
	router.Group().Route(func(api *routegroup.Bundle) {
		if s.AuthPasswd != "" {
			api.Use(rest.BasicAuthWithUserPasswd("rss-sniffer", s.AuthPasswd))
		}
		api.HandleFunc("POST /check", s.checkHandler)                  // classify a text
		api.HandleFunc("GET /profile/{identity...}", s.profileHandler) // account profile, u/ prefix allowed
		api.HandleFunc("GET /entries", s.entriesHandler)               // recent classified entries
		api.HandleFunc("GET /model", s.modelHandler)                   // active model summary
	})
	return router
}

// checkHandler handles POST /check request.
// it gets identity and text from request body and returns classified entry.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	req := textcheck.Request{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode request: %v", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "text is required"})
		return
	}

	entry := s.Engine.Check(r.Context(), req)
	log.Printf("[DEBUG] checked %s", entry.String())
	s.saveEntries(r.Context(), entry)
	rest.RenderJSON(w, entry)
}

// saveEntries writes entries to the durable store and to the entries log, if set. Failures are logged only.
// Used for recomputed entries after model swap as well.
func (s *Server) saveEntries(ctx context.Context, entries ...textcheck.Entry) {
	if len(entries) == 0 {
		return
	}
	if s.Entries != nil {
		if err := s.Entries.Write(ctx, entries...); err != nil {
			log.Printf("[WARN] can't store %d entries: %v", len(entries), err)
		}
	}
	if s.EntryLog == nil {
		return
	}
	s.logLock.Lock()
	defer s.logLock.Unlock()
	enc := json.NewEncoder(s.EntryLog)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			log.Printf("[WARN] can't write entry %s to log: %v", e.ID, err)
			return
		}
	}
}

// SaveRecomputed stores entries recomputed after model swap, same way as checked ones
func (s *Server) SaveRecomputed(entries []textcheck.Entry) {
	s.saveEntries(context.Background(), entries...)
}

// profileHandler handles GET /profile/{identity} request. Returns 404 if the profile is not available.
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if s.Profiles == nil {
		w.WriteHeader(http.StatusNotFound)
		rest.RenderJSON(w, rest.JSON{"error": "profile lookup disabled"})
		return
	}
	p := s.Profiles.Get(r.Context(), identity)
	if p == nil {
		w.WriteHeader(http.StatusNotFound)
		rest.RenderJSON(w, rest.JSON{"error": "profile not found", "identity": identity})
		return
	}
	rest.RenderJSON(w, p)
}

// entriesHandler handles GET /entries?limit=N request. Reads from the durable store if set,
// otherwise returns entries kept in memory by the engine. Newest first.
func (s *Server) entriesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultListLimit, s.MaxEntries)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid limit", "details": err.Error()})
		return
	}

	if s.Entries == nil {
		entries := s.Engine.LastEntries(limit)
		slices.Reverse(entries) // engine keeps them oldest first
		rest.RenderJSON(w, rest.JSON{"entries": entries, "count": len(entries)})
		return
	}

	entries, err := s.Entries.Read(r.Context(), limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't read entries", "details": err.Error()})
		return
	}
	if entries == nil {
		entries = []textcheck.Entry{}
	}
	rest.RenderJSON(w, rest.JSON{"entries": entries, "count": len(entries)})
}

// modelHandler handles GET /model?top=N request. It returns bias and top weights of the active model.
func (s *Server) modelHandler(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", defaultTopLimit, 1000)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid top", "details": err.Error()})
		return
	}
	m, ok := s.Engine.Model()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		rest.RenderJSON(w, rest.JSON{"error": "model is not set"})
		return
	}
	rest.RenderJSON(w, rest.JSON{"bias": m.Bias, "features": len(m.Weights), "top": m.Top(top)})
}

// intParam parses positive int query parameter, returns def if missing and caps the value at maxVal
func intParam(r *http.Request, name string, def, maxVal int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return min(def, maxVal), nil
	}
	res, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("can't parse %s %q: %w", name, v, err)
	}
	if res <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, res)
	}
	return min(res, maxVal), nil
}
