package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/tute/adapters/chain"
	"github.com/layer-3/tute/adapters/events"
	"github.com/layer-3/tute/adapters/signature"
	"github.com/layer-3/tute/adapters/store"
	"github.com/layer-3/tute/adapters/tokenizer"
	"github.com/layer-3/tute/adapters/worldid"
	"github.com/layer-3/tute/config"
	"github.com/layer-3/tute/ports"
	"github.com/layer-3/tute/service"
	"github.com/layer-3/tute/siwe"
	transport "github.com/layer-3/tute/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "tute",
		Usage: "wallet sign-in and token factory backend",
		Commands: []*cli.Command{
			commandServe(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "serve address, overrides HTTP_ADDR",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.HTTPAddr = addr
			}

			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func newLogger(cfg *config.Config) *zerolog.Logger {
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = time.RFC3339
		}))
	} else {
		logger = zerolog.New(os.Stdout)
	}

	logger = logger.Level(cfg.Level()).With().Timestamp().Str("service", "tute").Logger()
	return &logger
}

func serve(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	signKey, err := cfg.SigningKey()
	if err != nil {
		return err
	}
	if signKey == nil {
		logger.Warn().Msg("JWT_PRIVATE_KEY not set, generating an ephemeral signing key")
		if signKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader); err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return fmt.Errorf("failed to create redis publisher: %w", err)
	}
	defer publisher.Close()

	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to dial rpc: %w", err)
	}
	defer rpc.Close()

	factory, err := chain.NewTokenFactory(rpc, cfg.FactoryAddress)
	if err != nil {
		return err
	}

	httpCfg := worldid.HTTPConfig{
		Timeout:    cfg.HTTPTimeout,
		RetryCount: cfg.HTTPRetries,
		Backoff:    200 * time.Millisecond,
	}

	st := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(signKey, cfg.JWTIssuer),
		st,
		st,
		eventPub,
		siwe.NewValidator(signatureVerifier(cfg)),
		worldid.NewDirectory(cfg.UsernamesURL, httpCfg),
		service.AuthTTLs{
			Nonce:   cfg.NonceTTL,
			Access:  cfg.AccessTTL,
			Refresh: cfg.RefreshTTL,
		},
		logger,
	)
	verifyService := service.NewVerifyService(
		worldid.NewProofVerifier(cfg.WorldIDURL, cfg.AppID, httpCfg),
		st,
		eventPub,
		logger,
	)
	tokenService := service.NewTokenService(factory, st, cfg.TokenReadParallels, logger)

	gin.SetMode(gin.ReleaseMode)
	router := transport.SetupRouter(transport.Services{
		Auth:   authService,
		Verify: verifyService,
		Tokens: tokenService,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           transport.CORS(cfg.CORSOrigins, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func signatureVerifier(cfg *config.Config) ports.SignatureVerifier {
	strict := signature.NewSIWEVerifier(cfg.SIWEAllowedDomains)
	if cfg.SIWEMode == config.SIWEModeStrict {
		return strict
	}
	return signature.Chain{strict, signature.NewEIP191Verifier()}
}
