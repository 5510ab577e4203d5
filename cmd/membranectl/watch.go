package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"membrane-connect-be/pkg/events"
	"membrane-connect-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	natsURL string
	durable string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream membrane-connect domain events from NATS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if natsURL == "" {
			return fmt.Errorf("no NATS server: set NATS_URL or pass --nats-url")
		}

		sub, err := nats.NewSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		label := color.New(color.FgMagenta, color.Bold)
		enc := json.NewEncoder(os.Stdout)
		return sub.Subscribe(cmd.Context(), nats.SubjectPrefix+">", durable, func(_ context.Context, event events.Event) error {
			label.Printf("%s %s ", event.Timestamp().Format("15:04:05"), event.EventType())
			return enc.Encode(event.Payload())
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&natsURL, "nats-url", os.Getenv("NATS_URL"), "NATS server URL")
	watchCmd.Flags().StringVar(&durable, "durable", "", "durable consumer name; empty only shows new events")
}
