package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/rss-sniffer/app/config"
	"github.com/umputun/rss-sniffer/app/dataset"
	"github.com/umputun/rss-sniffer/app/reload"
	"github.com/umputun/rss-sniffer/app/storage"
	"github.com/umputun/rss-sniffer/app/storage/engine"
	"github.com/umputun/rss-sniffer/app/webapi"
	"github.com/umputun/rss-sniffer/lib/linear"
	"github.com/umputun/rss-sniffer/lib/profile"
	"github.com/umputun/rss-sniffer/lib/sniffer"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

type options struct {
	Convert struct {
		Format   string `long:"format" choice:"csv" choice:"hc3" default:"csv" description:"input format"`
		In       string `long:"in" required:"true" description:"input file"`
		Out      string `long:"out" required:"true" description:"output jsonl file"`
		TextCol  string `long:"text-col" description:"csv text column, resolved by aliases if not set"`
		LabelCol string `long:"label-col" description:"csv label column, resolved by aliases if not set"`
	} `command:"convert" description:"convert csv or hc3 dataset to jsonl records"`

	Featurize struct {
		In  string `long:"in" required:"true" description:"input jsonl records"`
		Out string `long:"out" required:"true" description:"output jsonl feature maps"`
	} `command:"featurize" description:"convert records to labeled feature maps"`

	Train struct {
		In         string  `long:"in" required:"true" description:"input jsonl feature maps"`
		Out        string  `long:"out" required:"true" description:"output model artifact"`
		Epochs     int     `long:"epochs" default:"20" description:"number of epochs"`
		LR         float64 `long:"lr" default:"0.1" description:"learning rate"`
		L2         float64 `long:"l2" default:"0.0001" description:"l2 penalty"`
		Seed       uint32  `long:"seed" default:"1337" description:"shuffle seed"`
		NoShuffle  bool    `long:"no-shuffle" description:"keep samples order"`
		MinSamples int     `long:"min-samples" default:"10" description:"minimal number of samples"`
		Top        int     `long:"top" default:"30" description:"number of top weights in the artifact"`
	} `command:"train" description:"train logistic regression model"`

	Eval struct {
		In        string  `long:"in" required:"true" description:"input jsonl feature maps"`
		Model     string  `long:"model" required:"true" description:"model artifact"`
		Threshold float64 `long:"threshold" default:"0.5" description:"probability threshold of ai class"`
		Sweep     string  `long:"sweep" description:"comma-separated thresholds to sweep, like 0.3,0.5,0.7"`
	} `command:"eval" description:"evaluate model on labeled feature maps"`

	Embed struct {
		Model  string `long:"model" required:"true" description:"model artifact"`
		Target string `long:"target" required:"true" description:"file with model markers, or json file to replace"`
	} `command:"embed" description:"embed model artifact into a target file"`

	Check struct {
		Text       string `long:"text" required:"true" description:"text to check, - to read from stdin"`
		User       string `long:"user" description:"author's account name"`
		ProfileAPI string `long:"profile-api" description:"identity service url, profiles disabled if not set"`
		Model      string `long:"model" description:"model artifact, embedded model if not set"`
		JSON       bool   `long:"json" description:"print entry as json"`
	} `command:"check" description:"classify a single text"`

	Server struct {
		Listen        string        `long:"listen" env:"LISTEN" default:"localhost:8080" description:"listen address"`
		DB            string        `long:"db" env:"DB" default:"rss-sniffer.db" description:"database url, sqlite file or postgres://"`
		GID           string        `long:"gid" env:"GID" default:"rss-sniffer" description:"group id of stored records"`
		Redis         string        `long:"redis" env:"REDIS" description:"redis url for profile cache, sql store used if not set"`
		Model         string        `long:"model" env:"MODEL" description:"model artifact, watched for changes; embedded model if not set"`
		NoProfiles    bool          `long:"no-profiles" env:"NO_PROFILES" description:"disable profile lookups"`
		AuthPasswd    string        `long:"auth" env:"AUTH_PASSWD" description:"basic auth password for user rss-sniffer"`
		PruneInterval time.Duration `long:"prune-interval" env:"PRUNE_INTERVAL" default:"1h" description:"interval of stale profiles removal"`
	} `command:"server" description:"run http api server"`

	Config string `long:"config" env:"CONFIG" description:"yaml file with tunables"`
	Dbg    bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

// errBadInput marks errors caused by the user input, reported with exit code 2
var errBadInput = errors.New("bad input")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run parses args and executes the active command, returns exit code.
// Stdout gets command output only, so the banner goes to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fmt.Fprintf(stderr, "rss-sniffer %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		return 2
	}

	setupLog(opts.Dbg, stderr, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	if err := execute(ctx, p.Active.Name, opts, stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		return exitCode(err)
	}
	return 0
}

func execute(ctx context.Context, cmd string, opts options, out io.Writer) error {
	settings, err := loadSettings(opts.Config)
	if err != nil {
		return err
	}

	switch cmd {
	case "convert":
		return runConvert(opts, out)
	case "featurize":
		return runFeaturize(opts, out)
	case "train":
		return runTrain(opts, out)
	case "eval":
		return runEval(opts, out)
	case "embed":
		return runEmbed(opts, out)
	case "check":
		return runCheck(ctx, opts, settings, out)
	case "server":
		return runServer(ctx, opts, settings)
	}
	return fmt.Errorf("%w: unknown command %q", errBadInput, cmd)
}

// exitCode maps error to process exit code, 2 for input and data errors, 1 for everything else
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errBadInput), errors.Is(err, dataset.ErrNoRecords), errors.Is(err, linear.ErrTooFewSamples),
		errors.Is(err, linear.ErrSingleClass), errors.Is(err, linear.ErrBadArtifact), errors.Is(err, linear.ErrNoMarkers):
		return 2
	}
	return 1
}

func badInput(err error) error {
	return fmt.Errorf("%w: %w", errBadInput, err)
}

// loadSettings returns default settings or loads them from the yaml file
func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		return config.New(), nil
	}
	res, err := config.Load(path)
	if err != nil {
		return nil, badInput(err)
	}
	log.Printf("[INFO] settings loaded from %s", path)
	return res, nil
}

func runConvert(opts options, out io.Writer) error {
	o := opts.Convert
	fh, err := os.Open(o.In)
	if err != nil {
		return badInput(fmt.Errorf("can't open %s: %w", o.In, err))
	}
	defer fh.Close()

	var res dataset.Result
	switch o.Format {
	case "hc3":
		res, err = dataset.ConvertHC3(fh)
	default:
		res, err = dataset.ConvertCSV(fh, dataset.CSVOpts{TextCol: o.TextCol, LabelCol: o.LabelCol})
	}
	if err != nil {
		return badInput(fmt.Errorf("can't convert %s: %w", o.In, err))
	}
	if res.Problems != nil {
		log.Printf("[WARN] skipped %d malformed rows of %s: %v", res.Skipped, o.In, res.Problems)
	}

	if err := dataset.WriteJSONLFile(o.Out, res.Records); err != nil {
		return fmt.Errorf("can't save records: %w", err)
	}
	human, ai := dataset.Counts(res.Records)
	fmt.Fprintf(out, "converted %s records to %s, human: %s, ai: %s, skipped: %s\n",
		humanize.Comma(int64(len(res.Records))), o.Out, humanize.Comma(int64(human)), humanize.Comma(int64(ai)),
		humanize.Comma(int64(res.Skipped)))
	return nil
}

func runFeaturize(opts options, out io.Writer) error {
	o := opts.Featurize
	records, err := dataset.ReadJSONLFile[dataset.Record](o.In)
	if err != nil {
		return badInput(err)
	}
	items, err := dataset.Featurize(records)
	if err != nil {
		return badInput(fmt.Errorf("can't featurize %s: %w", o.In, err))
	}
	if err := dataset.WriteJSONLFile(o.Out, items); err != nil {
		return fmt.Errorf("can't save features: %w", err)
	}
	fmt.Fprintf(out, "featurized %s records to %s\n", humanize.Comma(int64(len(items))), o.Out)
	return nil
}

func runTrain(opts options, out io.Writer) error {
	o := opts.Train
	samples, err := loadSamples(o.In)
	if err != nil {
		return err
	}

	trainOpts := linear.TrainOptions{Epochs: o.Epochs, LearningRate: o.LR, L2: o.L2, Seed: o.Seed,
		Shuffle: !o.NoShuffle, MinSamples: o.MinSamples}
	log.Printf("[INFO] training on %d samples, %+v", len(samples), trainOpts)
	st := time.Now()
	m, err := linear.Train(samples, trainOpts)
	if err != nil {
		return fmt.Errorf("can't train on %s: %w", o.In, err)
	}

	a := linear.NewArtifact(m, len(samples), time.Now().UTC(), o.Top)
	if err := linear.SaveArtifact(o.Out, a); err != nil {
		return fmt.Errorf("can't save model: %w", err)
	}
	fmt.Fprintf(out, "trained on %s samples in %v, %d weights saved to %s\n",
		humanize.Comma(int64(len(samples))), time.Since(st).Round(time.Millisecond), len(m.Weights), o.Out)
	fmt.Fprintf(out, "training set: %s\n", linear.Evaluate(m, samples, 0.5))
	return nil
}

func runEval(opts options, out io.Writer) error {
	o := opts.Eval
	a, err := linear.LoadArtifact(o.Model)
	if err != nil {
		return badInput(err)
	}
	samples, err := loadSamples(o.In)
	if err != nil {
		return err
	}

	thresholds := []float64{o.Threshold}
	if o.Sweep != "" {
		if thresholds, err = parseThresholds(o.Sweep); err != nil {
			return badInput(err)
		}
	}
	fmt.Fprintf(out, "model trained at %s on %s samples, evaluated on %s samples\n",
		a.TrainedAt.Format(time.RFC3339), humanize.Comma(int64(a.N)), humanize.Comma(int64(len(samples))))
	for _, m := range linear.Sweep(a.Model, samples, thresholds) {
		fmt.Fprintln(out, m.String())
	}
	return nil
}

func runEmbed(opts options, out io.Writer) error {
	o := opts.Embed
	a, err := linear.LoadArtifact(o.Model)
	if err != nil {
		return badInput(err)
	}
	if !fileutils.IsFile(o.Target) {
		return badInput(fmt.Errorf("target %s not found", o.Target))
	}
	if err := linear.EmbedInto(o.Target, a); err != nil {
		return fmt.Errorf("can't embed model: %w", err)
	}
	fmt.Fprintf(out, "model with %d weights embedded into %s\n", len(a.Model.Weights), o.Target)
	return nil
}

// runCheck classifies a single text with profiles fetched from ProfileAPI, if set, and prints the entry
func runCheck(ctx context.Context, opts options, settings *config.Settings, out io.Writer) error {
	o := opts.Check
	text := o.Text
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return badInput(fmt.Errorf("can't read stdin: %w", err))
		}
		text = string(data)
	}

	model, err := loadModel(o.Model)
	if err != nil {
		return err
	}
	eng := sniffer.New(settings.EngineConfig()).WithModel(model)
	if o.ProfileAPI != "" {
		settings.Profile.API = o.ProfileAPI
		cacheCfg := settings.ProfileConfig(&http.Client{Timeout: settings.Profile.Timeout}, profile.NewMemStore())
		eng = eng.WithProfiles(profile.NewCache(cacheCfg))
	}

	entry := eng.Check(ctx, textcheck.Request{Identity: o.User, Text: text})
	entryLog, err := makeEntryLogWriter(settings.Logger)
	if err != nil {
		return badInput(err)
	}
	defer entryLog.Close()
	if err := writeEntryLog(entryLog, entry); err != nil {
		log.Printf("[WARN] can't write entry log, %v", err)
	}

	if o.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(entry)
	}
	fmt.Fprintf(out, "%s %s\n", entry.Classification.Kind, entry.Classification.Emoji)
	fmt.Fprintf(out, "bot:%.1f ai:%.1f profile:%.1f\n", entry.Scores.Bot, entry.Scores.AI, entry.Scores.Profile)
	if entry.ModelProb != nil {
		fmt.Fprintf(out, "model p(ai): %.2f\n", *entry.ModelProb)
	}
	fmt.Fprintf(out, "reasons: %s\n", textcheck.ReasonsToString(entry.Reasons))
	return nil
}

func runServer(ctx context.Context, opts options, settings *config.Settings) error {
	o := opts.Server
	model, err := loadModel(o.Model)
	if err != nil {
		return err
	}

	var db *engine.SQL
	err = repeater.NewDefault(5, time.Second).Do(ctx, func() error {
		var e error
		db, e = engine.New(ctx, o.DB, o.GID)
		if e != nil {
			log.Printf("[WARN] can't connect to %s, %v", dbType(o.DB), e)
		}
		return e
	})
	if err != nil {
		return fmt.Errorf("can't make db engine: %w", err)
	}
	defer db.Close()
	log.Printf("[INFO] database %s, gid %s", db.Type(), db.GID())

	entries, err := storage.NewEntries(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make entries store: %w", err)
	}

	eng := sniffer.New(settings.EngineConfig()).WithModel(model)
	var profiles webapi.ProfileGetter
	if !o.NoProfiles {
		store, closeFn, err := makeProfileStore(ctx, o.Redis, db, settings, o.PruneInterval)
		if err != nil {
			return fmt.Errorf("can't make profile store: %w", err)
		}
		defer closeFn()
		cache := profile.NewCache(settings.ProfileConfig(&http.Client{Timeout: settings.Profile.Timeout}, store))
		eng = eng.WithProfiles(cache)
		profiles = cache
	}

	entryLog, err := makeEntryLogWriter(settings.Logger)
	if err != nil {
		return badInput(err)
	}
	defer entryLog.Close()

	srv := webapi.NewServer(webapi.Config{
		Version:     revision,
		ListenAddr:  o.Listen,
		Engine:      eng,
		Profiles:    profiles,
		Entries:     entries,
		EntryLog:    entryLog,
		AuthPasswd:  o.AuthPasswd,
		RateLimit:   settings.Server.RateLimit,
		MaxBodySize: settings.Server.MaxBodySize,
		MaxEntries:  settings.Server.MaxEntries,
	})

	if o.Model != "" {
		go func() {
			if err := reload.Watch(ctx, o.Model, reload.DefaultDebounce, reload.ModelReloader(eng, srv.SaveRecomputed)); err != nil {
				log.Printf("[WARN] model watcher failed, hot reload disabled: %v", err)
			}
		}()
	}

	return srv.Run(ctx)
}

// makeProfileStore returns redis store if redisURL set, sql store otherwise. Stale rows of the sql store
// are removed periodically.
func makeProfileStore(ctx context.Context, redisURL string, db *engine.SQL, settings *config.Settings,
	pruneInterval time.Duration) (profile.Store, func(), error) {
	keep := max(settings.Profile.OKTTL, settings.Profile.FailTTL)
	if redisURL != "" {
		rs, err := storage.NewRedis(ctx, redisURL, keep)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] profiles cached in redis")
		return rs, func() { _ = rs.Close() }, nil
	}

	ps, err := storage.NewProfiles(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	if pruneInterval > 0 {
		go pruneProfiles(ctx, ps, pruneInterval, keep)
	}
	log.Printf("[INFO] profiles cached in %s", db.Type())
	return ps, func() {}, nil
}

// pruneProfiles removes profile cache rows older than keep every interval, until ctx is done
func pruneProfiles(ctx context.Context, ps *storage.Profiles, interval, keep time.Duration) {
	log.Printf("[DEBUG] prune stale profiles every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] prune stale profiles stopped")
			return
		case <-ticker.C:
			n, err := ps.Prune(ctx, time.Now().Add(-keep))
			if err != nil {
				log.Printf("[WARN] can't prune profiles, %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[INFO] pruned %d stale profiles", n)
			}
		}
	}
}

// loadModel loads the artifact from path, or returns the embedded model if path is empty
func loadModel(path string) (linear.Model, error) {
	if path == "" {
		m, err := linear.Default()
		if err != nil {
			return linear.Model{}, fmt.Errorf("can't load embedded model: %w", err)
		}
		return m, nil
	}
	a, err := linear.LoadArtifact(path)
	if err != nil {
		return linear.Model{}, badInput(err)
	}
	log.Printf("[INFO] model loaded from %s, trained at %s on %d samples", path, a.TrainedAt.Format(time.RFC3339), a.N)
	return a.Model, nil
}

// loadSamples reads featurized jsonl file and converts it to training samples
func loadSamples(path string) ([]linear.Sample, error) {
	if !fileutils.IsFile(path) {
		return nil, badInput(fmt.Errorf("file %s not found", path))
	}
	items, err := dataset.ReadJSONLFile[dataset.Featurized](path)
	if err != nil {
		return nil, badInput(err)
	}
	samples, err := dataset.Samples(items)
	if err != nil {
		return nil, badInput(fmt.Errorf("can't make samples of %s: %w", path, err))
	}
	return samples, nil
}

// parseThresholds parses comma-separated list of probabilities
func parseThresholds(s string) ([]float64, error) {
	res := []float64{}
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("can't parse threshold %q: %w", v, err)
		}
		if th < 0 || th > 1 {
			return nil, fmt.Errorf("threshold %v out of [0,1]", th)
		}
		res = append(res, th)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("no thresholds in %q", s)
	}
	return res, nil
}

// dbType guesses database type by url for logging before the engine is made
func dbType(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return string(engine.Postgres)
	}
	return string(engine.Sqlite)
}

// makeEntryLogWriter creates log writer to keep classified entries as json lines, with rotation
func makeEntryLogWriter(opts config.LoggerSettings) (io.WriteCloser, error) {
	if !opts.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}
	if opts.FileName == "" {
		return nil, errors.New("entries log file name is required")
	}
	log.Printf("[INFO] entries log enabled for %s, max size %dM", opts.FileName, opts.MaxSize)
	return &lumberjack.Logger{
		Filename:   opts.FileName,
		MaxSize:    opts.MaxSize, // in MB
		MaxBackups: opts.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// writeEntryLog writes entry as a single json line
func writeEntryLog(wr io.Writer, entry textcheck.Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("can't marshal entry: %w", err)
	}
	if _, err := wr.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("can't write entry: %w", err)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, out io.Writer, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}
	logOpts = append(logOpts, lgr.Out(out)) // stdout is reserved for command output

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := []string{}
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
