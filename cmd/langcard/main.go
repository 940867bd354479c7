package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/config"
	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/review"
	"github.com/yonase/langcard/internal/schedule"
	"github.com/yonase/langcard/internal/storage"
	syncer "github.com/yonase/langcard/internal/sync"
	"github.com/yonase/langcard/internal/transfer"
	"github.com/yonase/langcard/internal/web"
)

const usage = `Usage: langcard [flags] [command]

Commands:
  serve            run the web UI (default)
  sync             pull and merge all registered sources, then exit
  export [file]    write a JSON export to file (or stdout)
  import <file>    merge a JSON export into the database
`

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("langcard", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(flags)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Error("failed to prepare directories", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	clk := clock.System{}
	store, err := deck.NewStore(db, clk, log)
	if err != nil {
		log.Error("failed to load cards", "error", err)
		os.Exit(1)
	}
	sched := schedule.New(clk)
	sy := syncer.New(db, store, clk, log, cfg.ReposDir)

	command := "serve"
	if flags.NArg() > 0 {
		command = flags.Arg(0)
	}

	switch command {
	case "serve":
		runServe(cfg, db, store, sched, sy, clk, log)
	case "sync":
		if _, err := sy.RunAll(); err != nil {
			log.Error("sync failed", "error", err)
			os.Exit(1)
		}
	case "export":
		if err := runExport(db, store, clk, flags.Arg(1)); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
	case "import":
		if flags.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "import needs a file argument")
			os.Exit(2)
		}
		if err := runImport(sy, log, flags.Arg(1)); err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flags.Usage()
		os.Exit(2)
	}
}

func runServe(cfg *config.Config, db *storage.DB, store *deck.Store, sched *schedule.Scheduler, sy *syncer.Syncer, clk clock.Clock, log *slog.Logger) {
	session := review.NewSession(store, sched, clk,
		review.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))))

	srv, err := web.NewServer(db, store, session, sched, sy, log)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	jobs := srv.StartJobs(cfg.AutoSyncEvery)
	defer jobs.Stop()

	log.Info("listening", "addr", cfg.ListenAddr, "cards", store.Count())
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func runExport(db *storage.DB, store *deck.Store, clk clock.Clock, path string) error {
	posts, err := db.AllPosts()
	if err != nil {
		return err
	}
	data, err := transfer.Export(store.All(), posts, clk.Now())
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runImport(sy *syncer.Syncer, log *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	payload, err := transfer.Parse(data)
	if err != nil {
		return err
	}
	cards, posts, err := sy.MergePayload(payload)
	if err != nil {
		return err
	}
	log.Info("import complete", "file", path, "cards", cards, "posts", posts)
	return nil
}
