package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/mem"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	hickae "github.com/Alfred-hhy/HICKAE-DB"
	"github.com/Alfred-hhy/HICKAE-DB/internal/stats"
)

var csvHeader = []string{"Writers", "Setup(ms)", "KeyGen(ms)", "IGen(ms)", "Prep(ms)", "Encrypt(us)", "Extract(us)"}

// defaultSweep is the writer series used by --sweep without explicit counts.
var defaultSweep = []int{10, 25, 50, 100, 200}

type row struct {
	writers int
	timings hickae.Timings
	encode  stats.Summary
	extract stats.Summary
	test    stats.Summary
}

func main() {
	var (
		writers    = pflag.IntP("writers", "n", 25, "number of writers")
		iterations = pflag.IntP("iterations", "i", 10, "Encode/Extract samples per writer count")
		sweep      = pflag.Bool("sweep", false, "run over a series of writer counts")
		counts     = pflag.IntSlice("counts", nil, "writer counts for --sweep (default 10,25,50,100,200)")
		csvPath    = pflag.String("csv", "", "append results to this CSV file")
		cfgPath    = pflag.StringP("config", "c", "", "YAML configuration file")
		workers    = pflag.Int("workers", 0, "worker goroutines (overrides config)")
		verify     = pflag.Bool("verify", false, "verify the correlation table with pairings")
		logLevel   = pflag.String("log-level", "", "log level (overrides config)")
		seed       = pflag.Int64("seed", 0, "seed for writer choice (0 -> time-based)")
	)
	pflag.Parse()

	cfg := hickae.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = hickae.LoadConfig(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if pflag.CommandLine.Changed("workers") {
		cfg.Workers = *workers
	}
	if *verify {
		cfg.VerifyCorrelation = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	cfg.Logger = log

	series := []int{*writers}
	if *sweep {
		series = defaultSweep
		if len(*counts) > 0 {
			series = *counts
		}
	}
	if *iterations <= 0 {
		log.Fatal("iterations must be > 0")
	}

	largest := 0
	for _, n := range series {
		largest = max(largest, n)
	}
	if largest > cfg.MaxWriters {
		ceiling, avail, err := memoryCeiling()
		if err != nil {
			log.WithError(err).Fatal("Cannot read host memory")
		}
		if largest > ceiling {
			log.Fatalf("%d writers need more than the %s available", largest, humanize.Bytes(avail))
		}
		log.WithFields(logrus.Fields{
			"configured": cfg.MaxWriters,
			"raised_to":  largest,
			"available":  humanize.Bytes(avail),
		}).Warn("Raising correlation table ceiling")
		cfg.MaxWriters = largest
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	rows := make([]row, 0, len(series))
	for _, n := range series {
		r, err := runOne(cfg, n, *iterations, rng)
		if err != nil {
			log.WithError(err).WithField("writers", n).Fatal("Benchmark failed")
		}
		printRow(r)
		rows = append(rows, r)
	}

	if *csvPath != "" {
		if err := appendCSV(*csvPath, rows); err != nil {
			log.WithError(err).Fatal("Cannot write CSV")
		}
		log.WithField("path", *csvPath).Info("Results written")
	}
}

// memoryCeiling is the largest n whose n x n table fits in half the
// available memory.
func memoryCeiling() (int, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	entries := float64(vm.Available/2) / 96 // uncompressed affine G1
	return int(math.Sqrt(entries)), vm.Available, nil
}

func runOne(cfg hickae.Config, n, iterations int, rng *rand.Rand) (row, error) {
	sys, err := hickae.New(cfg)
	if err != nil {
		return row{}, err
	}
	if _, _, err := sys.Initialize(n); err != nil {
		return row{}, err
	}
	if _, err := sys.GenerateIdentities(n); err != nil {
		return row{}, err
	}
	if _, _, err := sys.Precompute(); err != nil {
		return row{}, err
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	encTimes := make([]time.Duration, 0, iterations)
	extTimes := make([]time.Duration, 0, iterations)
	testTimes := make([]time.Duration, 0, iterations)
	for it := 0; it < iterations; it++ {
		w := rng.Intn(n)
		st := time.Now()
		tok, err := sys.Encode(w, "invoice", []byte(fmt.Sprintf("doc-%d", it)))
		encTimes = append(encTimes, time.Since(st))
		if err != nil {
			return row{}, err
		}

		st = time.Now()
		key, err := sys.Extract(all, "invoice")
		extTimes = append(extTimes, time.Since(st))
		if err != nil {
			return row{}, err
		}

		st = time.Now()
		ok := hickae.Test(key, tok)
		testTimes = append(testTimes, time.Since(st))
		if !ok {
			return row{}, errors.New("token from a covered writer did not match")
		}
	}

	return row{
		writers: n,
		timings: sys.Timings(),
		encode:  stats.Summarize("Encode", encTimes),
		extract: stats.Summarize("Extract", extTimes),
		test:    stats.Summarize("Test", testTimes),
	}, nil
}

func printRow(r row) {
	fmt.Printf("\n=== n = %d writers ===\n", r.writers)
	fmt.Printf("Setup   : %v\n", r.timings.Setup)
	fmt.Printf("KeyGen  : %v\n", r.timings.KeyGen)
	fmt.Printf("IGen    : %v\n", r.timings.IGen)
	fmt.Printf("Prep    : %v (verified=%v)\n", r.timings.Prep, r.timings.Verified)
	r.encode.Fprint(os.Stdout)
	r.extract.Fprint(os.Stdout)
	r.test.Fprint(os.Stdout)
}

// appendCSV writes rows to path, emitting the header only for a new file.
func appendCSV(path string, rows []row) error {
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		rec := []string{
			fmt.Sprint(r.writers),
			fmt.Sprintf("%.3f", stats.Millis(r.timings.Setup)),
			fmt.Sprintf("%.3f", stats.Millis(r.timings.KeyGen)),
			fmt.Sprintf("%.3f", stats.Millis(r.timings.IGen)),
			fmt.Sprintf("%.3f", stats.Millis(r.timings.Prep)),
			fmt.Sprintf("%.1f", stats.Micros(r.encode.Mean)),
			fmt.Sprintf("%.1f", stats.Micros(r.extract.Mean)),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
