package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dyuan/voiceledger/internal/aikey"
	"github.com/dyuan/voiceledger/internal/capture"
	"github.com/dyuan/voiceledger/internal/config"
	"github.com/dyuan/voiceledger/internal/inference"
	"github.com/dyuan/voiceledger/internal/ledger"
	"github.com/dyuan/voiceledger/internal/logger"
	"github.com/dyuan/voiceledger/internal/session"
	"github.com/dyuan/voiceledger/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	godotenv.Load()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "note":
		app.runNote()
	case "audio":
		app.runAudio()
	case "list":
		app.runList()
	case "summary":
		app.runSummary()
	case "remove":
		app.runRemove()
	case "set-key":
		app.runSetKey()
	case "key-source":
		app.runKeySource()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("VoiceLedger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  note        Classify a text transaction note")
	fmt.Println("  audio       Record from an audio file and classify it")
	fmt.Println("  list        List saved transactions")
	fmt.Println("  summary     Show totals and the expense breakdown")
	fmt.Println("  remove      Remove a transaction by ID")
	fmt.Println("  set-key     Save a Gemini API key override")
	fmt.Println("  key-source  Show which source supplies the API key")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	slot     storage.Slot
	store    *ledger.Store
	resolver *aikey.Resolver
	client   *inference.Client
	sess     *session.Session
	loc      *time.Location
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.ParseLevel(cfg.App.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	slot, err := storage.NewFileSlot(cfg.App.DataDir)
	if err != nil {
		return nil, err
	}

	store := ledger.NewStore(slot, log)
	store.Load()

	resolver := aikey.NewResolver(aikey.DefaultProbes(slot)...)
	client := inference.NewClient(resolver, cfg.Inference.Model, cfg.Inference.Timeout, log)

	return &app{
		cfg:      cfg,
		log:      log,
		slot:     slot,
		store:    store,
		resolver: resolver,
		client:   client,
		sess:     session.New(store, log),
		loc:      loc,
	}, nil
}

func (a *app) runNote() {
	fs := flag.NewFlagSet("note", flag.ExitOnError)
	text := fs.String("text", "", "Transaction note, e.g. 'spent 30 yuan on lunch yesterday'")
	key := fs.String("api-key", "", "Gemini API key for this invocation only")
	yes := fs.Bool("yes", false, "Save without asking")
	fs.Parse(os.Args[2:])

	if *text == "" {
		a.log.Fatal().Msg("Error: -text is required")
	}
	if *key != "" {
		aikey.SetRuntimeKey(*key)
	}

	ctx := context.Background()
	nowHint := inference.LocalDateTimeHint(time.Now(), a.loc)

	draft, err := a.client.ClassifyText(ctx, *text, nowHint)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Classification failed")
	}
	a.reviewAndConfirm(draft, *yes)
}

func (a *app) runAudio() {
	fs := flag.NewFlagSet("audio", flag.ExitOnError)
	file := fs.String("file", "", "Path to an encoded audio file")
	key := fs.String("api-key", "", "Gemini API key for this invocation only")
	yes := fs.Bool("yes", false, "Save without asking")
	fs.Parse(os.Args[2:])

	if *file == "" {
		a.log.Fatal().Msg("Error: -file is required")
	}
	if *key != "" {
		aikey.SetRuntimeKey(*key)
	}

	ctx := context.Background()

	controller := capture.NewController(&capture.FileSource{Path: *file}, a.log)
	defer controller.Close()

	if err := controller.Start(ctx); err != nil {
		a.log.Fatal().Err(err).Msg("Failed to start capture")
	}
	payload, ok := controller.Stop()
	if !ok || len(payload.Data) == 0 {
		a.log.Fatal().Msg("Capture produced no audio")
	}

	a.log.Info().
		Str("mime_type", payload.MIMEType).
		Int("bytes", len(payload.Data)).
		Msg("Audio captured")

	nowHint := inference.LocalDateTimeHint(time.Now(), a.loc)
	draft, err := a.client.ClassifyAudio(ctx, inference.AudioPayload(payload), nowHint)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Classification failed")
	}
	a.reviewAndConfirm(draft, *yes)
}

func (a *app) reviewAndConfirm(draft ledger.Draft, autoConfirm bool) {
	fmt.Println("Draft transaction:")
	fmt.Printf("  Amount:      %s\n", draft.Amount)
	fmt.Printf("  Category:    %s\n", draft.Category)
	fmt.Printf("  Description: %s\n", draft.Description)
	fmt.Printf("  Date:        %s\n", draft.Date)
	fmt.Printf("  Type:        %s\n", draft.Type)

	a.sess.Present(draft)

	if !autoConfirm {
		fmt.Print("Save this transaction? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			a.sess.Cancel()
			fmt.Println("Discarded.")
			return
		}
	}

	tx, err := a.sess.Confirm()
	if err != nil {
		a.log.Fatal().Err(err).Msg("Failed to save transaction")
	}
	fmt.Printf("Saved transaction %s\n", tx.ID)
}

func (a *app) runList() {
	txs := ledger.SortForDisplay(a.store.Snapshot())
	if len(txs) == 0 {
		fmt.Println("No transactions yet.")
		return
	}
	for _, tx := range txs {
		sign := "-"
		if tx.Type == ledger.TypeIncome {
			sign = "+"
		}
		fmt.Printf("%s  %s%s  %-4s  %s  (%s)\n",
			tx.Date, sign, tx.Amount, tx.Category, tx.Description, tx.ID)
	}
}

func (a *app) runSummary() {
	snapshot := a.store.Snapshot()
	summary := ledger.Summarize(snapshot)

	fmt.Printf("Income:  +%s\n", summary.TotalIncome)
	fmt.Printf("Expense: -%s\n", summary.TotalExpense)
	fmt.Printf("Balance: %s\n", summary.Balance)

	breakdown := ledger.BreakdownByCategory(snapshot)
	if len(breakdown) > 0 {
		fmt.Println("\nExpenses by category:")
		for _, slice := range breakdown {
			fmt.Printf("  %-4s  %s\n", slice.Category, slice.Total)
		}
	}
}

func (a *app) runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID to remove")
	fs.Parse(os.Args[2:])

	if *id == "" {
		a.log.Fatal().Msg("Error: -id is required")
	}
	if err := a.store.Remove(*id); err != nil {
		a.log.Fatal().Err(err).Msg("Failed to remove transaction")
	}
	fmt.Println("Removed.")
}

func (a *app) runSetKey() {
	fs := flag.NewFlagSet("set-key", flag.ExitOnError)
	key := fs.String("key", "", "Gemini API key to save as the local override")
	fs.Parse(os.Args[2:])

	if *key == "" {
		a.log.Fatal().Msg("Error: -key is required")
	}
	if err := aikey.SaveOverride(a.slot, *key); err != nil {
		a.log.Fatal().Err(err).Msg("Failed to save API key")
	}
	fmt.Println("API key saved.")
}

func (a *app) runKeySource() {
	_, source := a.resolver.Resolve()
	fmt.Printf("API key source: %s\n", source)
}
