package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-form-relay/config"
	_ "go-form-relay/docs" // Important for Swagger
	v1 "go-form-relay/internal/delivery/http/v1"
	"go-form-relay/internal/domain"
	"go-form-relay/internal/usecase"
	"go-form-relay/pkg/email"
	"go-form-relay/pkg/logger"
	"go-form-relay/pkg/redis"
	"go-form-relay/pkg/security"
	"go-form-relay/pkg/security/antivirus"
	"go-form-relay/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// @title           Form Relay API
// @version         1.0
// @description     Relays the public website forms (career, contact, footer) to the organisation inbox by email.
// @host            localhost:8080
// @BasePath        /v1

var rootCmd = &cobra.Command{
	Use:   "form-relay",
	Short: "Form relay API - delivers website form submissions by email",
	Long: `Form relay API validates the career, contact and footer forms of the website
and delivers each submission as an internal notification plus an acknowledgment
to the submitter.

Running without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var smtpCheckCmd = &cobra.Command{
	Use:   "smtp-check",
	Short: "Verify the SMTP credentials, optionally sending a test message",
	Long: `Connects to the configured SMTP provider, negotiates TLS and authenticates.

Example:
  form-relay smtp-check
  form-relay smtp-check --send-to me@example.com`,
	SilenceUsage: true,
	RunE:         runSMTPCheck,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(smtpCheckCmd)

	smtpCheckCmd.Flags().String("send-to", "", "Send a test message to this address after verifying")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	return cfg, nil
}

func newSender(cfg *config.Config) *email.SMTPSender {
	return email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.SMTPFromEmail,
		Timeout:   cfg.SMTPTimeout(),
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load Config
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	gin.SetMode(cfg.GinMode)
	logger.Log.Info("Starting form relay", "port", cfg.Port, "mode", cfg.GinMode)

	secLog := security.InitSecurityLogger("form-relay", cfg.GinMode)
	defer func() { _ = secLog.Sync() }()

	// 2. Optional Redis (rate limits, upload limits, dedup)
	healthChecks := map[string]domain.HealthCheck{
		"smtp": func(ctx context.Context) error {
			if !cfg.IsMailConfigured() {
				return errors.New("smtp credentials not configured")
			}
			return nil
		},
	}
	if cfg.UpstashRedisURL != "" {
		if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable - falling back to in-memory rate limiting", "error", err)
		} else {
			logger.Log.Info("Redis connected")
			defer redis.Close()
		}
		healthChecks["redis"] = redis.HealthCheck
	}

	// 3. Optional malware scanning for resumes
	var scanner antivirus.Scanner = antivirus.NewNoOpScanner()
	if cfg.ClamAVAddress != "" {
		clam := antivirus.NewClamAVScanner(cfg.ClamAVAddress, 30*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if !clam.Available(ctx) {
			logger.Log.Warn("clamd not reachable - resume uploads will be rejected until it is", "address", cfg.ClamAVAddress)
		}
		cancel()
		scanner = clam
		healthChecks["clamav"] = func(ctx context.Context) error {
			if !clam.Available(ctx) {
				return errors.New("clamd not reachable")
			}
			return nil
		}
	}

	// 4. Setup Email
	sender := newSender(cfg)
	if !sender.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - form routes will return 503")
	}

	// 5. Setup UseCase
	formUC := usecase.NewFormUsecase(usecase.FormDeps{
		Config:      cfg,
		Dispatcher:  email.NewDispatcher(sender),
		Validator:   validation.NewValidator(),
		Forms:       usecase.DefaultForms(cfg),
		Scanner:     scanner,
		Uploads:     security.NewUploadLimiter(cfg.UploadsPerMinute, cfg.UploadsPerDay),
		Nonces:      security.NewNonceGuard(cfg.DedupWindow()),
		SecurityLog: secLog,
	})

	// 6. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		FormUC:   formUC,
		HealthUC: usecase.NewHealthUsecase(healthChecks),
		Config:   cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Sends are bounded by the SMTP timeout, twice for verify + dispatch
		WriteTimeout: 2*cfg.SMTPTimeout() + 10*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		logger.Log.Error("Listen failed", "error", err)
		return err
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SMTPTimeout())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Log.Info("Server exiting")
	return nil
}

func runSMTPCheck(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sender := newSender(cfg)
	if !sender.IsConfigured() {
		return errors.New("SMTP_USERNAME/SMTP_PASSWORD (or GMAIL_USER/GMAIL_PASS) are not set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SMTPTimeout())
	defer cancel()

	if err := sender.Verify(ctx); err != nil {
		return fmt.Errorf("smtp verify failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "SMTP OK: %s:%s as %s\n", cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername)

	to, _ := cmd.Flags().GetString("send-to")
	if to == "" {
		return nil
	}
	err = sender.Send(ctx, &email.Message{
		FromName: cfg.OrganizationName,
		To:       []string{to},
		Subject:  "Form relay SMTP check",
		HTML:     "<p>This is a test message from the form relay service.</p>",
	})
	if err != nil {
		return fmt.Errorf("test send failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Test message sent to %s\n", to)
	return nil
}
