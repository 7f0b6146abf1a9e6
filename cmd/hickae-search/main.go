package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	hickae "github.com/Alfred-hhy/HICKAE-DB"
	"github.com/Alfred-hhy/HICKAE-DB/internal/dataset"
	"github.com/Alfred-hhy/HICKAE-DB/internal/index"
	"github.com/Alfred-hhy/HICKAE-DB/internal/stats"
	"github.com/Alfred-hhy/HICKAE-DB/internal/workers"
)

func main() {
	defaults := dataset.DefaultGenOptions()
	var (
		dataDir  = pflag.StringP("data", "d", "database_small", "directory of <id>.txt writer databases")
		generate = pflag.Bool("generate", false, "generate the dataset into --data first")
		genN     = pflag.Int("gen-writers", defaults.Writers, "writers to generate")
		genK     = pflag.Int("gen-keywords", defaults.KeywordsPerWriter, "keywords per generated writer")
		genSeed  = pflag.Int64("gen-seed", defaults.Seed, "generator seed")
		keyword  = pflag.StringP("keyword", "k", "invoice", "keyword to search")
		subset   = pflag.IntSlice("writers", nil, "0-based writer indices to search (default all)")
		queries  = pflag.IntP("queries", "q", 10, "number of repeated searches for latency stats")
		csvPath  = pflag.String("csv", "", "append a latency row to this CSV file")
		cfgPath  = pflag.StringP("config", "c", "", "YAML configuration file")
		logLevel = pflag.String("log-level", "", "log level (overrides config)")
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
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	cfg.Logger = log

	if *generate {
		opts := defaults
		opts.Writers, opts.KeywordsPerWriter, opts.Seed = *genN, *genK, *genSeed
		dbs, err := dataset.Generate(opts)
		if err != nil {
			log.WithError(err).Fatal("Cannot generate dataset")
		}
		if err := dataset.Write(*dataDir, dbs); err != nil {
			log.WithError(err).Fatal("Cannot write dataset")
		}
		log.WithFields(logrus.Fields{"dir": *dataDir, "writers": len(dbs)}).Info("Dataset generated")
	}

	dbs, err := dataset.Load(*dataDir)
	if err != nil {
		log.WithError(err).Fatal("Cannot load dataset")
	}
	if len(dbs) == 0 {
		log.Fatalf("no writer databases in %s", *dataDir)
	}
	n := len(dbs)

	sys, err := hickae.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if _, _, err := sys.Initialize(n); err != nil {
		log.WithError(err).Fatal("Initialize failed")
	}
	if _, err := sys.GenerateIdentities(n); err != nil {
		log.WithError(err).Fatal("Identity generation failed")
	}
	if _, _, err := sys.Precompute(); err != nil {
		log.WithError(err).Fatal("Precompute failed")
	}

	idx := index.New(cfg.Workers, log)
	st := time.Now()
	if err := ingest(sys, idx, dbs, cfg.Workers); err != nil {
		log.WithError(err).Fatal("Ingest failed")
	}
	log.WithFields(logrus.Fields{"tokens": idx.Len(), "elapsed": time.Since(st)}).Info("Index built")

	members := *subset
	if len(members) == 0 {
		members = make([]int, n)
		for i := range members {
			members[i] = i
		}
	}
	if *queries <= 0 {
		log.Fatal("queries must be > 0")
	}

	var (
		endToEnd = make([]time.Duration, 0, *queries)
		server   = make([]time.Duration, 0, *queries)
		last     index.Result
	)
	for q := 0; q < *queries; q++ {
		st := time.Now()
		key, err := sys.Extract(members, *keyword)
		if err != nil {
			log.WithError(err).Fatal("Extract failed")
		}
		res, err := idx.Search(context.Background(), key)
		if err != nil {
			log.WithError(err).Fatal("Search failed")
		}
		endToEnd = append(endToEnd, time.Since(st))
		server = append(server, res.Latency)
		last = res
	}

	fmt.Printf("\n=== Search %q over %d of %d writers ===\n", *keyword, len(slices.Compact(slices.Sorted(slices.Values(members)))), n)
	for _, h := range last.Hits {
		fmt.Printf("writer %-3d docs: %s\n", h.Writer, h.Payload)
	}
	fmt.Printf("%d hits, %d tokens scanned\n\n", len(last.Hits), last.Scanned)

	e2e := stats.Summarize("EndToEnd", endToEnd)
	srv := stats.Summarize("Server", server)
	e2e.Fprint(os.Stdout)
	srv.Fprint(os.Stdout)

	want := expectedHits(dbs, members, *keyword)
	if len(last.Hits) != want {
		log.WithFields(logrus.Fields{"hits": len(last.Hits), "expected": want}).Fatal("Search result mismatch")
	}

	if *csvPath != "" {
		rec := []string{
			strconv.Itoa(n),
			strconv.Itoa(idx.Len()),
			strconv.Itoa(len(last.Hits)),
			fmt.Sprintf("%.3f", stats.Millis(e2e.Mean)),
			fmt.Sprintf("%.3f", stats.Millis(srv.Mean)),
		}
		if err := appendCSV(*csvPath, rec); err != nil {
			log.WithError(err).Fatal("Cannot write CSV")
		}
	}
}

// ingest encodes one token per (writer, keyword) line; the payload is the
// document list.
func ingest(sys *hickae.System, idx *index.Index, dbs []dataset.WriterDB, limit int) error {
	return workers.Range(len(dbs), limit, func(start, end int) error {
		for _, db := range dbs[start:end] {
			for _, r := range db.Records {
				docs := make([]string, len(r.Docs))
				for i, d := range r.Docs {
					docs[i] = strconv.Itoa(d)
				}
				tok, err := sys.Encode(db.Index(), r.Keyword, []byte(strings.Join(docs, " ")))
				if err != nil {
					return fmt.Errorf("writer %d keyword %q: %w", db.ID, r.Keyword, err)
				}
				if err := idx.Add(tok); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// expectedHits counts plaintext lines the search should find.
func expectedHits(dbs []dataset.WriterDB, members []int, keyword string) int {
	count := 0
	for _, db := range dbs {
		if !slices.Contains(members, db.Index()) {
			continue
		}
		for _, r := range db.Records {
			if r.Keyword == keyword {
				count++
			}
		}
	}
	return count
}

func appendCSV(path string, rec []string) error {
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write([]string{"Writers", "Tokens", "Hits", "EndToEndLatency(ms)", "ServerLatency(ms)"}); err != nil {
			return err
		}
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
