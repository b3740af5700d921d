package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/goph-auth/internal/config"
	"github.com/and161185/goph-auth/internal/crypto"
	"github.com/and161185/goph-auth/internal/limiter"
	"github.com/and161185/goph-auth/internal/migrate"
	"github.com/and161185/goph-auth/internal/obs"
	"github.com/and161185/goph-auth/internal/repository"
	"github.com/and161185/goph-auth/internal/repository/memory"
	"github.com/and161185/goph-auth/internal/repository/postgres"
	"github.com/and161185/goph-auth/internal/revocation"
	grpcserver "github.com/and161185/goph-auth/internal/server/grpc"
	"github.com/and161185/goph-auth/internal/service"
	"github.com/and161185/goph-auth/internal/token"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC session service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			lc := cfg.AsLoggerConfig()
			lc.Version = version
			log, err := obs.NewLogger(lc)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

// stores bundles the storage-backed collaborators of the session manager.
type stores struct {
	accounts repository.AccountRepository
	revoked  revocation.Registry
	limiter  limiter.Limiter
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("memory storage: accounts and revocations are lost on restart")
		return &stores{
			accounts: memory.NewAccountRepo(),
			revoked:  revocation.NewMemory(),
			limiter:  limiter.NewMemory(cfg.Limiter.AsLimiterConfig()),
			close:    func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := migrate.Up(ctx, cfg.DB.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
	}
	db, err := postgres.Connect(ctx, cfg.DB.AsPoolConfig(), log)
	if err != nil {
		return nil, err
	}
	return &stores{
		accounts: postgres.NewAccountRepo(db),
		revoked:  postgres.NewRevocationRepo(db),
		limiter:  limiter.NewPG(db.Pool, cfg.Limiter.AsLimiterConfig()),
		close:    db.Close,
	}, nil
}

// serve runs the gRPC and metrics servers until ctx is done, then drains.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.GRPCAddr),
		zap.String("storage", cfg.Storage.Driver),
	)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	iss, err := token.NewIssuer([]byte(cfg.Auth.SigningKey), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, st.revoked)
	if err != nil {
		return err
	}
	svc := service.NewSessionManager(service.Deps{
		Accounts: st.accounts,
		Hasher:   crypto.NewHasher(),
		Tokens:   iss,
		Revoked:  st.revoked,
		Limiter:  st.limiter,
		Log:      log.Named("session"),
	}, cfg.Auth.RotateRefresh)

	var opts []grpc.ServerOption
	if cfg.Server.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		log.Warn("TLS disabled: bearer tokens travel in clear text")
	}
	gs := grpcserver.NewGRPCServer(svc, log.Named("grpc"), opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if cfg.Server.Reflection {
		reflection.Register(gs)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ms := obs.StartMetricsServer(cfg.Server.MetricsAddr, st.accounts.Ping, log)

	bgCtx, cancelBg := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		revocation.NewPruner(st.revoked, cfg.Auth.PruneInterval, log.Named("pruner")).Run(bgCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.Server.TLSEnabled()))
		errCh <- gs.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(cfg.Server.GracefulTimeout):
			gs.Stop()
		}
	case err := <-errCh:
		if !errors.Is(err, grpc.ErrServerStopped) {
			serveErr = fmt.Errorf("grpc serve: %w", err)
		}
	}

	cancelBg()
	wg.Wait()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := ms.Shutdown(shCtx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}

	log.Info("shutdown complete")
	return serveErr
}
