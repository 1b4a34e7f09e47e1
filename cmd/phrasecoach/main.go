// Command phrasecoach serves the phrase comparison API and offers one-shot
// comparison and flashcard commands.
//
// Usage:
//
//	phrasecoach serve   [-config config.yaml]
//	phrasecoach compare -target TEXT -spoken TEXT [-confidence C] [-threshold T] [-json]
//	phrasecoach cards   [-file cards.json] [-phrases phrases.json] [-shuffle] [-lookup TERM]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/MrWong99/phrasecoach/internal/app"
	"github.com/MrWong99/phrasecoach/internal/config"
	"github.com/MrWong99/phrasecoach/internal/flashcards"
	"github.com/MrWong99/phrasecoach/internal/phrases"
	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// version is set at build time via -ldflags.
var version = "dev"

const defaultShutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "serve":
		return runServe(args[1:], stderr)
	case "compare":
		return runCompare(args[1:], stdout, stderr)
	case "cards":
		return runCards(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "phrasecoach: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: phrasecoach <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  serve     run the HTTP API")
	fmt.Fprintln(w, "  compare   compare one spoken phrase against a target")
	fmt.Fprintln(w, "  cards     print or search the flashcard deck")
}

// ── serve ─────────────────────────────────────────────────────────────────────

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stderr, "phrasecoach: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(stderr, "phrasecoach: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.Level())
	logger := newLogger(stderr, &level)
	slog.SetDefault(logger)

	slog.Info("phrasecoach starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg,
		app.WithLogger(logger),
		app.WithLevelVar(&level),
		app.WithVersion(version),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, application.ApplyConfig,
		config.WithWatcherLogger(logger),
	)
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(stderr, cfg)
	slog.Info("server ready, press Ctrl+C to shut down")

	runErr := application.Run(ctx)
	if runErr != nil {
		slog.Error("run error", "err", runErr)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("shutdown signal received, stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if runErr != nil {
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── compare ───────────────────────────────────────────────────────────────────

func runCompare(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	target := fs.String("target", "", "target phrase")
	spoken := fs.String("spoken", "", "recognised speech")
	confidence := fs.Float64("confidence", -1, "recogniser confidence in [0,1]; negative means unknown")
	threshold := fs.Float64("threshold", 0.85, "similarity at or above which a substitution counts as close")
	asJSON := fs.Bool("json", false, "print the review as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if math.IsNaN(*threshold) || *threshold < 0 || *threshold > 1 {
		fmt.Fprintln(stderr, "phrasecoach: -threshold must be between 0 and 1")
		return 2
	}

	u := types.Utterance{Text: *spoken}
	if *confidence >= 0 || math.IsNaN(*confidence) {
		u.Confidence = types.Confidence(*confidence)
	}
	if err := u.Validate(); err != nil {
		fmt.Fprintf(stderr, "phrasecoach: %v\n", err)
		return 2
	}

	rv := compare.New(compare.WithFuzzyThreshold(*threshold)).Review(*target, u)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rv); err != nil {
			fmt.Fprintf(stderr, "phrasecoach: %v\n", err)
			return 1
		}
		return 0
	}
	printReview(stdout, rv)
	return 0
}

func printReview(w io.Writer, rv compare.Review) {
	fmt.Fprintf(w, "Target: %s\n", rv.Target)
	fmt.Fprintf(w, "Spoken: %s\n", rv.Spoken)
	if rv.Confidence != nil {
		fmt.Fprintf(w, "Confidence: %.0f%%\n", *rv.Confidence*100)
	}
	fmt.Fprintf(w, "Score: %d%% (%s)\n\n", rv.Score, rv.Message)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tVERDICT\tHEARD")
	for _, wr := range rv.Words {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", wr.Text, wr.Verdict, wr.Spoken)
	}
	tw.Flush()

	if len(rv.ExtraWords) > 0 {
		fmt.Fprintf(w, "\nExtra words: %v\n", rv.ExtraWords)
	}
}

// ── cards ─────────────────────────────────────────────────────────────────────

func runCards(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "JSON card file (array of {term, translation})")
	phrasesFile := fs.String("phrases", "", "phrase file to derive cards from when no card file is given")
	shuffle := fs.Bool("shuffle", false, "shuffle the deck")
	lookup := fs.String("lookup", "", "print the card whose term matches, allowing small typos")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var list []string
	if *phrasesFile != "" {
		var err error
		if list, err = phrases.LoadFile(*phrasesFile); err != nil {
			fmt.Fprintf(stderr, "phrasecoach: %v\n", err)
			return 1
		}
	}
	cards, err := flashcards.Load(*file, list)
	if err != nil {
		fmt.Fprintf(stderr, "phrasecoach: %v\n", err)
		return 1
	}
	deck := flashcards.NewDeck(cards)

	if *lookup != "" {
		card, sim, ok := deck.Lookup(*lookup)
		if !ok {
			fmt.Fprintf(stderr, "phrasecoach: no card matches %q\n", *lookup)
			return 1
		}
		fmt.Fprintf(stdout, "%s\t%s\t(%.2f)\n", card.Term, card.Translation, sim)
		return 0
	}

	if *shuffle {
		deck.Shuffle(nil)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for i := 0; i < deck.Len(); i++ {
		card, _ := deck.Current()
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, card.Term, card.Translation)
		deck.Next()
	}
	tw.Flush()
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║      phrasecoach startup summary      ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Listen addr", cfg.Server.ListenAddr)
	printRow(w, "Fuzzy", fmt.Sprintf("%.2f", cfg.Scoring.FuzzyThreshold))
	printRow(w, "Bands", fmt.Sprintf(">%d great, >%d fair", cfg.Scoring.GreatAbove, cfg.Scoring.FairAbove))
	printRow(w, "Phrases", orUnset(cfg.Phrases.File, "(built-in)"))
	printRow(w, "Cards", orUnset(cfg.Cards.File, "(derived)"))
	printRow(w, "History", string(cfg.History.Backend))
	printRow(w, "Metrics", cfg.Telemetry.MetricsPath)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, label, value string) {
	if r := []rune(value); len(r) > 19 {
		value = string(r[:18]) + "…"
	}
	fmt.Fprintf(w, "║  %-12s    : %-19s ║\n", label, value)
}

func orUnset(v, unset string) string {
	if v == "" {
		return unset
	}
	return v
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
