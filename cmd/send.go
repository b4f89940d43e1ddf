package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaykit/warelay/internal/config"
	"github.com/relaykit/warelay/internal/tools"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a one-off WhatsApp text message",
	RunE:  runSend,
}

var (
	sendTo     string
	sendText   string
	sendSchema bool
)

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient phone number (free-form)")
	sendCmd.Flags().StringVar(&sendText, "text", "", "Message body")
	sendCmd.Flags().BoolVar(&sendSchema, "schema", false, "Print the tool's invocation schema and exit")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tool := makeTools(cfg).Get("send_message")
	if tool == nil {
		return fmt.Errorf("send_message tool not registered")
	}

	if sendSchema {
		schema, err := json.MarshalIndent(tools.ToSchema(tool), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	}

	if sendTo == "" || sendText == "" {
		return fmt.Errorf("both --to and --text are required")
	}
	if err := config.ValidateCredentials(cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	result, err := tool.Execute(context.Background(), map[string]any{
		"to":   sendTo,
		"text": sendText,
	})
	if err != nil {
		return err
	}

	fmt.Println(result)

	var parsed struct {
		Summary string `json:"summary"`
		Error   any    `json:"error"`
		Hint    string `json:"hint"`
	}
	if json.Unmarshal([]byte(result), &parsed) == nil {
		if parsed.Summary != "" {
			fmt.Println(parsed.Summary)
		}
		if parsed.Error != nil {
			if parsed.Hint != "" {
				fmt.Fprintln(os.Stderr, "hint: "+parsed.Hint)
			}
			os.Exit(1)
		}
	}
	return nil
}
