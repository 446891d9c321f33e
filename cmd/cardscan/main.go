// Command cardscan identifies cards in a photo: one card, or a 3x3 binder
// page. Results are printed as JSON, one slot per entry.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/wudi/cardkit/catalog"
	"github.com/wudi/cardkit/config"
	"github.com/wudi/cardkit/observability"
	"github.com/wudi/cardkit/ocr/tesseract"
	"github.com/wudi/cardkit/scan"
)

func main() {
	mode := flag.String("mode", "single", "scan mode: single or binder")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cardscan [-mode single|binder] [-verbose] <image>")
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log := observability.NewZerolog(logger)

	cfg := config.Load()

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Fatal().Err(err).Msg("read image")
	}

	client, err := catalog.NewClient(cfg.CatalogBaseURL, nil, log)
	if err != nil {
		logger.Fatal().Err(err).Msg("create catalog client")
	}
	matcher := catalog.NewMatcher(
		client,
		catalog.NewCache(cfg.CacheTTL, cfg.CacheCapacity),
		catalog.NewLimiter(cfg.RatePerSecond, cfg.Burst),
		catalog.WithLogger(log),
	)

	orchestrator := scan.New(tesseract.New(), matcher,
		scan.WithLogger(log),
		scan.WithWorkers(cfg.Workers),
		scan.WithMinConfidence(cfg.MinConfidence),
		scan.WithMaxDimension(cfg.MaxDimension),
		scan.WithLanguages(cfg.Languages...),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var slots []scan.Slot
	switch *mode {
	case "single":
		slot, err := orchestrator.Single(ctx, data)
		if err != nil {
			logger.Fatal().Err(err).Msg("scan failed")
		}
		slots = []scan.Slot{slot}
	case "binder":
		slots, err = orchestrator.Binder(ctx, data)
		if err != nil {
			logger.Fatal().Err(err).Msg("scan failed")
		}
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(slots); err != nil {
		logger.Fatal().Err(err).Msg("encode result")
	}
}
