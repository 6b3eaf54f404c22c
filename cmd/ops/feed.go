package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type feedMessage struct {
	Type    string `json:"type"`
	Payload struct {
		ID            string    `json:"id"`
		WalletAddress string    `json:"wallet_address"`
		StartedAt     time.Time `json:"started_at"`
		Duration      int       `json:"duration"`
		Color         string    `json:"color"`
	} `json:"payload"`
}

func newFeedCmd() *cobra.Command {
	var (
		url   string
		count int
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Watch the live session feed",
		// the feed only needs a URL, not the service config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), url, nil)
			if err != nil {
				return fmt.Errorf("dial: %w", err)
			}
			defer conn.Close()

			return watchFeed(cmd.Context(), conn, cmd.OutOrStdout(), count)
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/api/v1/feed/ws", "feed websocket url")
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many sessions (0 runs until interrupted)")
	return cmd
}

// watchFeed prints one line per session frame until count frames were seen,
// the context ends or the connection fails.
func watchFeed(ctx context.Context, conn *websocket.Conn, w io.Writer, count int) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	seen := 0
	for count == 0 || seen < count {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			fmt.Fprintf(w, "unreadable frame: %s\n", data)
			continue
		}
		if msg.Type != "session" {
			continue
		}

		p := msg.Payload
		fmt.Fprintf(w, "%s %s %s %4ds %s\n",
			p.StartedAt.UTC().Format(time.RFC3339), p.WalletAddress, p.Color, p.Duration, p.ID)
		seen++
	}
	return nil
}
