package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaykit/warelay/internal/appbridge"
	"github.com/relaykit/warelay/internal/config"
	"github.com/relaykit/warelay/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	if err := config.ValidateCredentials(cfg); err != nil {
		// The webhook contract still requires acknowledging events, so
		// serve without replying rather than refusing to start.
		log.Printf("[Serve] ⚠ %v — events will be acknowledged but not answered", err)
	}

	settings := webhook.Settings{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		VerifyToken:   cfg.WhatsApp.VerifyToken,
	}

	var reply webhook.ReplyFunc
	if appID, ok := cfg.App.Resolve(); ok {
		settings.AppID = appID
		bridge := appbridge.NewBridge(
			makeStore(cfg),
			appbridge.NewHTTPInvoker(cfg.Backend.URL, cfg.Backend.APIKey, backendTimeout(cfg)),
		)
		reply = bridge.Reply
		log.Printf("[Serve] App configured: %s", appID)
	} else {
		log.Println("[Serve] No app configured, running in echo mode")
	}

	sender := makeSender(cfg)
	trace := webhook.NewHub()
	handler := webhook.NewHandler(settings, reply, sender.BestEffortSend, trace)

	server := webhook.NewServer(webhook.ServerConfig{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Handler: handler,
		Trace:   trace,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	return server.Start(ctx)
}
