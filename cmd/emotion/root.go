package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finmood/internal/config"
	"finmood/internal/emotion"
)

type options struct {
	url     string
	model   string
	timeout time.Duration
	asJSON  bool
}

type output struct {
	emotion.ScoreSet
	Message string `json:"message"`
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	cfg := config.Load()
	opts := options{url: cfg.EmotionAPIURL, model: cfg.EmotionModelID, timeout: cfg.EmotionTimeout}

	cmd := &cobra.Command{
		Use:   "emotion [text...]",
		Short: "Classify the emotions expressed in a piece of text",
		Long: `Send text to the emotion classifier and print the five emotion scores
together with the dominant emotion. Without arguments the text is read
from standard input.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, text)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", opts.url, "emotion classifier base URL")
	f.StringVar(&opts.model, "model", opts.model, "model id sent to the classifier")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "classifier request timeout")
	f.BoolVar(&opts.asJSON, "json", false, "print the scores as JSON")
	return cmd
}

func run(ctx context.Context, w io.Writer, opts options, text string) error {
	client := emotion.NewClient(emotion.ClientConfig{BaseURL: opts.url, ModelID: opts.model, Timeout: opts.timeout})
	res, err := emotion.NewAnalyzer(client, emotion.AnalyzerConfig{}).Analyze(ctx, strings.TrimSpace(text))
	if err != nil {
		return err
	}
	if !res.OK() && res.Err.Kind != emotion.KindClientRejected {
		return res.Err
	}

	msg := emotion.Summary(res.Scores)
	if !opts.asJSON {
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{ScoreSet: res.Scores, Message: msg})
}
