package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/moneyney/moneyney-backend/internal/adapter/grpc"
	"github.com/moneyney/moneyney-backend/internal/adapter/quote"
	"github.com/moneyney/moneyney-backend/internal/adapter/repository"
	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/config"
	"github.com/moneyney/moneyney-backend/internal/logger"
	"github.com/moneyney/moneyney-backend/internal/usecase/portfolio"
	"github.com/moneyney/moneyney-backend/internal/usecase/seeder"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("").Fatalw("invalid configuration", "error", err)
	}
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	// 2. Open the slot store
	ctx := context.Background()
	opened, err := repository.Open(ctx, cfg.Store, cfg.DBURL)
	if err != nil {
		log.Fatalw("failed to open store", "store", cfg.Store, "error", err)
	}
	defer func() {
		if err := opened.Close(); err != nil {
			log.Warnw("failed to close store", "error", err)
		}
	}()
	log.Infow("store ready", "backend", opened.Backend)

	// 3. Initialize services
	quotes := quote.NewClient(cfg.QuoteBaseURL, cfg.QuoteTimeout)
	portfolioService := portfolio.NewPortfolioService(opened.Store, quotes, clock.System{}, log, portfolio.Options{
		RetentionDays:        cfg.RetentionDays,
		EnforceTradingWindow: cfg.EnforceTradingWindow,
		SyncConcurrency:      cfg.SyncConcurrency,
	})

	if cfg.SeedDemoFunds {
		n, err := seeder.NewDemoSeeder(portfolioService, quotes, log).Seed(ctx)
		if err != nil {
			log.Fatalw("failed to seed demo funds", "error", err)
		}
		log.Infow("demo funds seeded", "added", n)
	}

	// 4. Start gRPC server
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.LoggingInterceptor(log)),
	)
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcadapter.NewServer(portfolioService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalw("failed to listen", "addr", cfg.GRPCAddr, "error", err)
	}

	go func() {
		log.Infow("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalw("failed to serve gRPC server", "error", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, log *zap.SugaredLogger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Infow("shutting down gracefully", "signal", sig.String())

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}
