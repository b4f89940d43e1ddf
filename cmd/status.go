package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/warelay/internal/config"
	"github.com/relaykit/warelay/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resolved configuration and store connectivity",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Printf("server:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("access_token:    %s\n", config.MaskSecret(cfg.WhatsApp.AccessToken))
	fmt.Printf("phone_number_id: %s\n", cfg.WhatsApp.PhoneNumberID)
	fmt.Printf("verify_token:    %s\n", config.MaskSecret(cfg.WhatsApp.VerifyToken))

	if appID, ok := cfg.App.Resolve(); ok {
		fmt.Printf("app:             %s\n", appID)
	} else {
		fmt.Println("app:             (none, echo mode)")
	}

	if err := config.ValidateCredentials(cfg); err != nil {
		fmt.Printf("credentials:     ✗ %v\n", err)
	} else {
		fmt.Println("credentials:     ✓")
	}

	for _, tool := range makeTools(cfg).All() {
		fmt.Printf("tool:            %s — %s\n", tool.Name(), tool.Description())
	}

	if cfg.Redis.URL == "" {
		fmt.Println("store:           in-memory")
		return nil
	}
	rs, err := store.NewRedis(store.Config{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		fmt.Printf("store:           ✗ %v\n", err)
		return nil
	}
	defer rs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rs.Get(ctx, store.ConversationKey("status", "probe")); err != nil {
		fmt.Printf("store:           ✗ %v\n", err)
	} else {
		fmt.Println("store:           ✓ redis")
	}
	return nil
}
