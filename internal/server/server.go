package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"land-registry/internal/auth"
	"land-registry/internal/land"
	"land-registry/internal/notify"
	"land-registry/internal/storage"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg Config

	mux      *http.ServeMux
	signer   *auth.JWTSigner
	users    auth.UserStore
	lands    land.Store
	docs     *storage.DocStore
	notifier notify.Notifier
	logger   *log.Logger

	roleHomes map[auth.Role]string

	rlLoginIP *multiLimiter
	rlLoginID *multiLimiter
	rlAdminIP *multiLimiter
}

// New connects the Mongo-backed stores and builds the API server.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if cfg.MongoURI == "" {
		return nil, errors.New("server: MongoURI required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("server: MongoDB required")
	}

	logger := log.New(os.Stdout, "[landregd] ", log.LstdFlags|log.Lshortfile)

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cli, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	users := auth.NewMongoUserStoreWithClient(cli, cfg.MongoDB, cfg.UsersCollection)
	lands := land.NewMongoStoreWithClient(cli, cfg.MongoDB, cfg.LandsCollection)

	docs, err := storage.NewDocStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStores(cfg, users, lands, docs, notify.New(cfg.RedisAddr, logger), logger)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSeedAdmin(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithStores wires a server onto already-built collaborators. Tests use
// it with in-memory stores.
func NewWithStores(cfg Config, users auth.UserStore, lands land.Store, docs *storage.DocStore, notifier notify.Notifier, logger *log.Logger) (*Server, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = log.New(os.Stdout, "[landregd] ", log.LstdFlags|log.Lshortfile)
	}

	priv, _, err := auth.GenerateEd25519()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		signer:   auth.NewJWTSigner(priv, cfg.JWTIssuer, cfg.TokenTTL),
		users:    users,
		lands:    lands,
		docs:     docs,
		notifier: notifier,
		logger:   logger,
		roleHomes: map[auth.Role]string{
			auth.RoleUser:       "/dashboard",
			auth.RoleAdmin:      "/admin/dashboard",
			auth.RoleGovernment: "/government/dashboard",
			auth.RoleBank:       "/bank/dashboard",
		},
	}

	// Every known role must map to a home view; an unrecognized role fails
	// loudly at startup instead of defaulting silently.
	for _, role := range []auth.Role{auth.RoleUser, auth.RoleAdmin, auth.RoleGovernment, auth.RoleBank} {
		if _, ok := s.roleHomes[role]; !ok {
			return nil, fmt.Errorf("server: no home route for role %q", role)
		}
	}

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }
	s.rlLoginIP = newMultiLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 1*time.Hour)
	s.rlLoginID = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)
	s.rlAdminIP = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	s.addDefaultHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") {
		if s.isPublic(path) {
			s.mux.ServeHTTP(w, r)
			return
		}
		handler := auth.AuthRequired(s.signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		}))
		handler.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s
}

func (s *Server) isPublic(path string) bool {
	switch path {
	case "/health", "/api/health", "/api/auth/login", "/api/auth/register", "/api/auth/admin/login":
		return true
	default:
		return false
	}
}

func (s *Server) addDefaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
}

func (s *Server) ensureSeedAdmin() error {
	seed := s.cfg.SeedAdmin
	if strings.TrimSpace(seed.Email) == "" || strings.TrimSpace(seed.Password) == "" {
		return nil
	}
	if _, err := s.users.FindByEmail(seed.Email); err == nil {
		return nil
	}
	hash, err := auth.HashPassword(auth.DefaultArgon, seed.Password)
	if err != nil {
		return err
	}
	admin := &auth.User{
		Username: seed.Username,
		Email:    strings.TrimSpace(strings.ToLower(seed.Email)),
		PassHash: hash,
		Role:     auth.RoleAdmin,
	}
	if err := s.users.Add(admin); err != nil {
		return err
	}
	s.logger.Printf("seeded admin %s (%s)", admin.Username, admin.Email)
	return nil
}
