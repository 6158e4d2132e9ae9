package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/metrics"
	ratingrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	logCfg := utilities.ConfigFromEnv()
	lg, err := utilities.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-identity")

	dbCfg := database.ConfigFromEnv()
	if envBool("MIGRATE_ON_START") {
		if err := database.Migrate(dbCfg.DSN); err != nil {
			sugar.Fatalf("migrate: %v", err)
		}
		sugar.Info("migrations applied")
	}
	sqlDB, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	tokCfg, err := token.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("token config: %v", err)
	}
	if len(tokCfg.Secret) == 0 {
		if !logCfg.Dev {
			sugar.Fatal("JWT_SECRET is required")
		}
		sugar.Warn("JWT_SECRET not set; using a random key, tokens will not survive a restart")
		if tokCfg.Secret, err = token.RandomSecret(); err != nil {
			sugar.Fatalf("generate jwt secret: %v", err)
		}
	}
	issuer, err := token.NewIssuer(tokCfg)
	if err != nil {
		sugar.Fatalf("token issuer: %v", err)
	}

	socialCfg, err := social.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("social config: %v", err)
	}
	resolvers := social.NewRegistryFromConfig(socialCfg)
	sugar.Infow("social providers registered", "providers", resolvers.Registered())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := user.NewUserService(user.Deps{
		Users:     userrepo.NewUserRepo(sqlxDB),
		Ratings:   ratingrepo.NewRatingRepo(sqlxDB),
		Resolvers: resolvers,
		Tokens:    issuer,
		IDs:       utilities.NewIDGenerator(utilities.NodeFromEnv()),
		Metrics:   metrics.NewCollector(reg),
		Logger:    sugar,
	})

	handler := router.New(router.Config{
		Logger:         sugar,
		Users:          user.NewHandler(svc, sugar),
		Tokens:         issuer,
		Gatherer:       reg,
		Ping:           sqlxDB.PingContext,
		AllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
