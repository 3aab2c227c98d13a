// Command summarize prints a summary of its arguments, of stdin, or of the
// page behind -url.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"textsummarizer/internal/config"
	"textsummarizer/internal/source"
	"textsummarizer/internal/summarizer"
)

const maxStdinBytes = 1 << 20

func main() {
	os.Exit(run())
}

func run() int {
	rawURL := flag.String("url", "", "Summarize the page or newest feed item at this URL")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-url URL] [text...]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Reads text from stdin when no text arguments are given.")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: max(cfg.Level(), slog.LevelWarn)}))

	client, err := summarizer.New(cfg.SummarizerOptions(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarizer: %v\n", err)
		return 1
	}

	text, err := inputText(ctx, *rawURL, flag.Args(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input: %v\n", err)
		return 1
	}

	summary, err := client.Summarize(ctx, summarizer.Input{Text: text})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Println(summary)

	return 0
}

func inputText(ctx context.Context, rawURL string, args []string, log *slog.Logger) (string, error) {
	if rawURL = strings.TrimSpace(rawURL); rawURL != "" {
		extractor, err := source.NewExtractor(nil, log)
		if err != nil {
			return "", fmt.Errorf("create extractor: %w", err)
		}

		doc, err := extractor.Extract(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", rawURL, err)
		}

		return doc.Text, nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	raw, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	return string(raw), nil
}
