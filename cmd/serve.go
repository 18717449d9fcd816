package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
	"github.com/xiaot623/nexusdesk/internal/clock"
	"github.com/xiaot623/nexusdesk/internal/events"
	"github.com/xiaot623/nexusdesk/internal/policy"
	"github.com/xiaot623/nexusdesk/internal/service"
	httpserver "github.com/xiaot623/nexusdesk/internal/transport/http"
	"github.com/xiaot623/nexusdesk/internal/transport/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and chat websocket API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, st, err := bootstrap()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, err := newController(cfg, st, log)
	if err != nil {
		return err
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return err
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	llmClient := llm.NewClient(cfg.LLMMode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	svc := service.New(ctrl, llmClient, producer, policyEngine, clock.Real())

	hub := ws.NewHub()
	go hub.Run(ctx)
	chat := ws.NewServer(hub, svc, ws.Options{
		WriteTimeout: cfg.WSWriteTimeout,
		PongTimeout:  cfg.WSPongTimeout,
		ChatTimeout:  cfg.LLMTimeout,
	})
	svc.SetChatHistory(chat)

	e := httpserver.NewServer(svc, chat, log)

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("store", cfg.StoreBackend).
		Str("tenant", cfg.TenantScope).
		Bool("events", producer.Enabled()).
		Msg("starting nexusdesk")

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to shutdown server gracefully")
	}
	log.Info().Msg("stopped")
	return nil
}
