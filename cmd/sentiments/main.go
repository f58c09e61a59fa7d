// Command sentiments joins a daily price file with a directory of per-ticker
// social-message files, stores the result in SQLite, and queries it.
//
// Usage:
//
//	sentiments --price-data prices.psv --sms-data-dir sms/
//	sentiments --dquery 2020-01-02
//	sentiments --tquery AAPL:2020-01-01:2020-01-31
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sentiments/internal/config"
	"sentiments/internal/pipeline"
	"sentiments/internal/query"
	"sentiments/internal/store"
	"sentiments/internal/util"
)

const defaultConfigPath = "config/sentiments.yaml"

// errInvalidOptions marks command-line configuration errors. They are
// reported before any file is touched.
var errInvalidOptions = errors.New("invalid options")

type options struct {
	configPath string
	priceData  string
	smsDataDir string
	dquery     *time.Time
	tquery     *query.Range
}

func (o *options) rebuild() bool { return o.priceData != "" }

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		args = []string{"-h"}
	}

	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "sentiments: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "sentiments: failed to load config: %v\n", err)
		return 2
	}

	logger := util.NewLogger(cfg.Logging)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("begin", "args", args)
	if err := execute(ctx, cfg, opts, stdout, logger); err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintf(stderr, "sentiments: %v\n", err)
		return 1
	}
	logger.Info("end")
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("sentiments", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML config file (default $SENTIMENTS_CONFIG or "+defaultConfigPath+")")
	priceData := fs.String("price-data", "", "the pipe-delimited (or .parquet) price file")
	smsDataDir := fs.String("sms-data-dir", "", "the directory in which sms csv files live")
	dquery := fs.String("dquery", "", "query in the form YYYY-MM-DD representing the date of interest")
	tquery := fs.String("tquery", "", "query in the form TICKER:YYYY-MM-DD:YYYY-MM-DD where the dates represent the timespan of interest")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errInvalidOptions, fs.Arg(0))
	}

	opts := &options{configPath: *configPath}

	if (*priceData == "") != (*smsDataDir == "") {
		return nil, fmt.Errorf("%w: both --price-data and --sms-data-dir must be set to build the database", errInvalidOptions)
	}
	if *dquery != "" && *tquery != "" {
		return nil, fmt.Errorf("%w: only one of --dquery or --tquery may be given", errInvalidOptions)
	}

	if *priceData != "" {
		p, err := resolvePath(*priceData, false)
		if err != nil {
			return nil, err
		}
		d, err := resolvePath(*smsDataDir, true)
		if err != nil {
			return nil, err
		}
		opts.priceData, opts.smsDataDir = p, d
	}

	if *dquery != "" {
		d, err := query.ParseDate(*dquery)
		if err != nil {
			return nil, fmt.Errorf("%w: --dquery: %v", errInvalidOptions, err)
		}
		opts.dquery = &d
	}
	if *tquery != "" {
		r, err := query.ParseRange(*tquery)
		if err != nil {
			return nil, fmt.Errorf("%w: --tquery: %v", errInvalidOptions, err)
		}
		opts.tquery = &r
	}

	if !opts.rebuild() && opts.dquery == nil && opts.tquery == nil {
		return nil, fmt.Errorf("%w: nothing to do; give --price-data/--sms-data-dir, --dquery, or --tquery", errInvalidOptions)
	}
	return opts, nil
}

// resolvePath checks that p exists and is a directory (wantDir) or a regular
// file, and returns its absolute path with symlinks resolved.
func resolvePath(p string, wantDir bool) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidOptions, err)
	}
	switch {
	case wantDir && !info.IsDir():
		return "", fmt.Errorf("%w: sms-data-dir %s must be a directory", errInvalidOptions, p)
	case !wantDir && !info.Mode().IsRegular():
		return "", fmt.Errorf("%w: price-data %s must be a file", errInvalidOptions, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// loadConfig reads an explicit config path strictly; the default path may be
// absent, in which case built-in defaults apply.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		path = os.Getenv("SENTIMENTS_CONFIG")
	}
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(defaultConfigPath)
}

func execute(ctx context.Context, cfg config.Config, opts *options, stdout io.Writer, logger *slog.Logger) error {
	if opts.rebuild() {
		sum, err := pipeline.Rebuild(ctx, cfg, opts.priceData, opts.smsDataDir, logger)
		if err != nil {
			return err
		}
		dbPath, err := filepath.Abs(sum.StorePath)
		if err != nil {
			dbPath = sum.StorePath
		}
		fmt.Fprintf(stdout, "The result database, containing %d records, has been created at %s\n", sum.Count, dbPath)
	}

	if opts.dquery == nil && opts.tquery == nil {
		return nil
	}

	s, err := store.OpenReadOnly(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.dquery != nil {
		rows, err := s.QueryByDate(ctx, *opts.dquery)
		if err != nil {
			return err
		}
		return query.Render(stdout, rows)
	}

	rows, err := s.QueryByTickerRange(ctx, opts.tquery.Ticker, opts.tquery.Start, opts.tquery.End)
	if err != nil {
		return err
	}
	if err := query.Render(stdout, rows); err != nil {
		return err
	}
	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	return query.RenderCount(stdout, n)
}
