package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/cognicore/ideascope/pkg/ideascope/executor"
	"github.com/cognicore/ideascope/pkg/ideascope/store"
	"github.com/cognicore/ideascope/pkg/ideascope/store/sqlite"
)

type options struct {
	dir         string
	ext         string
	interpreter string
	args        []string
	logDir      string
	timeout     time.Duration
	db          string
}

func main() {
	var (
		dir         = flag.String("dir", "", "Directory of experiment scripts (required unless --history)")
		ext         = flag.String("ext", ".py", "Script extension")
		interpreter = flag.String("interpreter", "python", "Interpreter invoked with each script; empty runs scripts directly")
		args        = flag.String("args", "", "Space-separated arguments placed before the script path")
		logDir      = flag.String("log-dir", "logs", "Directory for per-script logs")
		timeout     = flag.Duration("timeout", 0, "Per-script time limit (0 = none)")
		db          = flag.String("db", "", "SQLite database recording the run")
		history     = flag.Int("history", 0, "Print the last N recorded runs from --db and exit")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *history > 0 {
		if *db == "" {
			log.Fatal("--history needs --db")
		}
		if err := printHistory(ctx, os.Stdout, *db, *history); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *dir == "" {
		log.Fatal("--dir required")
	}
	opts := options{
		dir:         *dir,
		ext:         *ext,
		interpreter: *interpreter,
		args:        strings.Fields(*args),
		logDir:      *logDir,
		timeout:     *timeout,
		db:          *db,
	}
	sum, err := run(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}
	render(os.Stdout, sum)
}

func run(ctx context.Context, opts options) (executor.Summary, error) {
	scripts, err := executor.Discover(opts.dir, opts.ext)
	if err != nil {
		return executor.Summary{}, err
	}
	log.Printf("Found %d scripts in %s", len(scripts), opts.dir)

	runner := &executor.Runner{
		Interpreter: opts.interpreter,
		Args:        opts.args,
		LogDir:      opts.logDir,
		Timeout:     opts.timeout,
	}
	sum, err := runner.Run(ctx, scripts)
	if opts.db != "" {
		if rerr := record(context.WithoutCancel(ctx), opts, len(scripts), sum); rerr != nil {
			log.Printf("[EXEC] record run: %v", rerr)
		}
	}
	return sum, err
}

func record(ctx context.Context, opts options, found int, sum executor.Summary) error {
	if err := os.MkdirAll(filepath.Dir(opts.db), 0o755); err != nil {
		return err
	}
	st, err := sqlite.OpenSQLite(ctx, opts.db)
	if err != nil {
		return err
	}
	defer st.Close()

	r := store.Run{
		ID:     store.NewID(),
		Kind:   store.KindExecute,
		Topic:  filepath.Base(opts.dir),
		Input:  found,
		Output: sum.Succeeded,
		Note:   strings.TrimSpace(opts.interpreter + " " + strings.Join(opts.args, " ")),
	}
	if err := st.RecordRun(ctx, r); err != nil {
		return err
	}
	for _, res := range sum.Results {
		if err := st.RecordExecution(ctx, r.ID, res); err != nil {
			return err
		}
	}
	return nil
}

func render(w io.Writer, sum executor.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, r := range sum.Results {
		status := green("ok")
		switch {
		case r.TimedOut:
			status = yellow("timeout")
		case !r.OK():
			status = red(fmt.Sprintf("exit %d", r.ExitCode))
		}
		fmt.Fprintf(w, "  %-40s %-10s %8s  %s\n", r.Name, status, r.Duration.Round(time.Millisecond), r.LogPath)
	}
	fmt.Fprintf(w, "%s %d succeeded, %d failed (%.1f%%)\n",
		bold("Summary:"), sum.Succeeded, sum.Failed, 100*sum.SuccessRate())
}

func printHistory(ctx context.Context, w io.Writer, db string, n int) error {
	st, err := sqlite.OpenSQLite(ctx, db)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, store.KindExecute, n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		execs, err := st.ListExecutions(ctx, r.ID)
		if err != nil {
			return err
		}
		failed := 0
		for _, e := range execs {
			if !e.OK() {
				failed++
			}
		}
		fmt.Fprintf(w, "%s  %s  %-20s scripts=%d ok=%d failed=%d\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Topic, r.Input, r.Output, failed)
	}
	return nil
}
