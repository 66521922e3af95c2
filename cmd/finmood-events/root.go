package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"finmood/internal/amqp"
	"finmood/internal/config"
)

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	url, exchange := cfg.AMQPURL, cfg.AMQPExchange
	var binding string

	cmd := &cobra.Command{
		Use:   "finmood-events",
		Short: "Print finmood events as JSON lines",
		Long: `Bind a private queue to the finmood exchange and print every event it
receives, one JSON document per line, until interrupted.`,
		Example: `  finmood-events --binding 'transaction.*'
  finmood-events --binding emotion.analyzed`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				return errors.New("no broker configured: set AMQP_URL or --url")
			}
			client, err := amqp.NewClient(url, exchange)
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.Subscribe(cmd.Context(), binding, printer(cmd.OutOrStdout()))
			if errors.Is(err, context.Canceled) {
				slog.Info("Stopped")
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&url, "url", url, "AMQP broker URL")
	f.StringVar(&exchange, "exchange", exchange, "topic exchange to bind to")
	f.StringVar(&binding, "binding", "#", "routing key pattern")
	return cmd
}

// printer writes each event as one JSON line.
func printer(w io.Writer) func(*amqp.Event) error {
	return func(e *amqp.Event) error {
		b, err := e.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
}
