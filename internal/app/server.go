// Package app wires the dayline runtime and gRPC lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/dayline/internal/platform/config"
	"github.com/louisbranch/dayline/internal/services/journal"
	journalsqlite "github.com/louisbranch/dayline/internal/services/journal/storage/sqlite"
	"github.com/louisbranch/dayline/internal/services/profile"
	"github.com/louisbranch/dayline/internal/services/social"
	socialsqlite "github.com/louisbranch/dayline/internal/services/social/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type serverEnv struct {
	JournalDBPath string `env:"DAYLINE_JOURNAL_DB_PATH"`
	SocialDBPath  string `env:"DAYLINE_SOCIAL_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.JournalDBPath) == "" {
		cfg.JournalDBPath = filepath.Join("data", "journal.db")
	}
	if strings.TrimSpace(cfg.SocialDBPath) == "" {
		cfg.SocialDBPath = filepath.Join("data", "social.db")
	}
	return cfg
}

// Server hosts the dayline services and the gRPC lifecycle. RPC
// bindings mount on top of the service accessors.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server

	journalStore *journalsqlite.Store
	socialStore  *socialsqlite.Store

	journalService *journal.Service
	socialService  *social.Service
	profileService *profile.Service
}

// New creates a configured dayline server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured dayline server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()

	journalStore, err := openStore(srvEnv.JournalDBPath, journalsqlite.Open)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("open journal store: %w", err)
	}
	socialStore, err := openStore(srvEnv.SocialDBPath, socialsqlite.Open)
	if err != nil {
		_ = listener.Close()
		_ = journalStore.Close()
		return nil, fmt.Errorf("open social store: %w", err)
	}

	journalService := journal.NewService(journalStore)
	socialService := social.NewService(socialStore)
	profileService := profile.NewService(socialService, journalService)

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("dayline.v1.JournalService", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("dayline.v1.SocialService", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("dayline.v1.ProfileService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:       listener,
		grpcServer:     grpcServer,
		health:         healthServer,
		journalStore:   journalStore,
		socialStore:    socialStore,
		journalService: journalService,
		socialService:  socialService,
		profileService: profileService,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Journal returns the journal service.
func (s *Server) Journal() *journal.Service {
	if s == nil {
		return nil
	}
	return s.journalService
}

// Social returns the social service.
func (s *Server) Social() *social.Service {
	if s == nil {
		return nil
	}
	return s.socialService
}

// Profile returns the profile service.
func (s *Server) Profile() *profile.Service {
	if s == nil {
		return nil
	}
	return s.profileService
}

// Run creates and serves a dayline server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("dayline server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.journalStore != nil {
		if err := s.journalStore.Close(); err != nil {
			log.Printf("close journal store: %v", err)
		}
	}
	if s.socialStore != nil {
		if err := s.socialStore.Close(); err != nil {
			log.Printf("close social store: %v", err)
		}
	}
}

func openStore[T any](path string, open func(string) (T, error)) (T, error) {
	var zero T
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zero, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := open(path)
	if err != nil {
		return zero, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}
