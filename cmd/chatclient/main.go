package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/adapters/httpapi"
	"github.com/tonutonmoy/chat-client-side/internal/adapters/rtc"
	signaladapter "github.com/tonutonmoy/chat-client-side/internal/adapters/signal"
	"github.com/tonutonmoy/chat-client-side/internal/app"
	"github.com/tonutonmoy/chat-client-side/internal/app/call"
	"github.com/tonutonmoy/chat-client-side/internal/app/chat"
	"github.com/tonutonmoy/chat-client-side/internal/app/presence"
	"github.com/tonutonmoy/chat-client-side/internal/config"
	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
	"github.com/tonutonmoy/chat-client-side/internal/media"
	"github.com/tonutonmoy/chat-client-side/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	selfID := cfg.SelfID
	if selfID == "" {
		selfID = uuid.NewString()
		log.Warn().Str("self_id", selfID).Msg("no self_id configured, using a fresh one")
	}
	self := domain.Caller{ID: domain.UserID(selfID), FirstName: cfg.SelfName}

	channel, err := signaladapter.Dial(ctx, cfg.ServerURL, signaladapter.Options{
		ReadLimit:  cfg.ReadLimit,
		SendBuffer: cfg.SendBuffer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach coordination server")
	}
	defer channel.Close()

	rest := store.NewClient(cfg.APIBase, cfg.UploadURL)
	pipeline := media.NewPipeline()
	state := httpapi.NewUIState()

	peerCfg := rtc.Config{
		STUNServers:    cfg.STUNServers,
		RegisterCodecs: media.RegisterCodecs,
	}
	peers := func(partner domain.UserID) (core.MediaConnection, error) {
		return rtc.NewConnection(peerCfg, partner)
	}

	calls := call.NewMachine(self, channel, pipeline, peers, media.NewLogRinger(), state)
	engine := chat.NewEngine(self.ID, channel, rest, state, cfg.TypingQuiet)
	tracker := presence.NewTracker(state)

	client := app.NewClient(self, channel, calls, engine, tracker, pipeline, state)
	if err := client.Bind(); err != nil {
		log.Fatal().Err(err).Msg("failed to bind event handlers")
	}
	defer client.Close()

	r := httpapi.SetupRouter(cfg, client, state, rest)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("self", selfID).Msg("chat client started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("control api error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("control api forced to shutdown")
	}
	log.Info().Msg("Client exited gracefully")
}
