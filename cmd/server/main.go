package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"psup-auth/internal/audit"
	auditrepo "psup-auth/internal/audit/repository"
	"psup-auth/internal/config"
	"psup-auth/internal/db"
	"psup-auth/internal/event"
	"psup-auth/internal/health"
	"psup-auth/internal/identifier"
	"psup-auth/internal/logger"
	"psup-auth/internal/notification"
	preferencerepo "psup-auth/internal/preference/repository"
	profilerepo "psup-auth/internal/profilefield/repository"
	rolerepo "psup-auth/internal/role/repository"
	"psup-auth/internal/rollover"
	"psup-auth/internal/security"
	"psup-auth/internal/server"
	"psup-auth/internal/server/middleware"
	sessionrepo "psup-auth/internal/session/repository"
	settingsrepo "psup-auth/internal/settings/repository"
	"psup-auth/internal/signup/service"
	otelsetup "psup-auth/internal/telemetry/otel"
	userrepo "psup-auth/internal/user/repository"
)

const serviceName = "psup-auth"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTelEndpoint, serviceName, cfg.OTelInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()

	priv, pub, ephemeral, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	if ephemeral {
		zl.Warn("JWT keys not configured, using an ephemeral key pair; sessions will not survive a restart")
	}
	tokens := security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	users := userrepo.NewPostgresRepository(pool)
	prefs := preferencerepo.NewPostgresRepository(pool)
	profile := profilerepo.NewPostgresRepository(pool)
	roles := rolerepo.NewPostgresRepository(pool)
	settingsRepo := settingsrepo.NewPostgresRepository(pool)
	sessions := sessionrepo.NewPostgresRepository(pool)

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(pool), middleware.GetClientIP, zl)

	emitters := []event.Emitter{
		event.NewAuditEmitter(auditLogger),
		otelsetup.NewEventEmitter(providers.LoggerProvider),
	}
	if publisher := event.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic); publisher != nil {
		defer publisher.Close()
		emitters = append(emitters, event.Async(publisher, zl))
	}
	sink := event.NewSink(zl, emitters...)

	var mailer notification.Mailer = notification.NewLogMailer(zl)
	if cfg.MailEnabled() {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TLS:      cfg.SMTPTLS,
		})
	} else {
		zl.Warn("SMTP not configured, confirmation emails are written to the log")
	}
	gateway := notification.NewGateway(mailer, cfg.PublicURL, "", zl)

	starter := service.NewSessionStarter(sessions, tokens, sink, zl)
	svc := service.NewService(service.Deps{
		Users:     users,
		Prefs:     prefs,
		Profile:   profile,
		Roles:     roles,
		Settings:  settingsRepo,
		Validator: identifier.NewValidator(profile),
		Hasher:    security.NewHasher(cfg.BcryptCost),
		Sessions:  starter,
		Notifier:  gateway,
		Log:       zl,
	})

	queue, err := rolloverQueue(ctx, cfg, pool, zl)
	if err != nil {
		return err
	}

	checker := health.NewChecker(pool)
	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Service:    svc,
			Dispatcher: service.NewDispatcher(sink, starter, gateway, zl),
			Sessions:   starter,
			Roles:      roles,
			Rollover:   queue,
			Audit:      auditLogger,
			Health:     checker,
			PublicURL:  cfg.PublicURL,
			Log:        zl,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv, healthSrv := server.NewGRPCServer()
	go checker.Watch(ctx, healthSrv, 10*time.Second)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 2)
	go func() {
		zl.Info("gRPC health server listening", zap.String("addr", cfg.GRPCAddr))
		errCh <- grpcSrv.Serve(lis)
	}()
	go func() {
		zl.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("public_url", cfg.PublicURL))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()

	time.Sleep(event.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		zl.Warn("otel shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
	return serveErr
}

// rolloverQueue publishes jobs to Kafka for cmd/worker when brokers are configured and
// otherwise runs them in process.
func rolloverQueue(ctx context.Context, cfg *config.Config, exec db.Executor, zl *zap.Logger) (rollover.Queue, error) {
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		q, err := rollover.NewKafkaQueue(brokers, cfg.RolloverKafkaTopic)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = q.Close()
		}()
		zl.Info("rollover jobs go to kafka", zap.String("topic", cfg.RolloverKafkaTopic))
		return q, nil
	}
	q := rollover.NewMemoryQueue(8)
	runner := rollover.NewRunner(rollover.NewPostgresEngine(exec, zl), nil, zl)
	go func() {
		if err := q.Consume(ctx, runner.Handle); err != nil && !errors.Is(err, context.Canceled) {
			zl.Error("in-process rollover consumer stopped", zap.Error(err))
		}
	}()
	zl.Info("rollover jobs run in process")
	return q, nil
}
