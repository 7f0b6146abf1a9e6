// Package dataset reads and generates writer keyword databases.
//
// A database directory holds one file per writer named <id>.txt, with ids
// starting at 1. Each line is a keyword followed by the document ids it
// occurs in:
//
//	invoice 12 87 301
//	payment 4 87
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Record is one line of a writer database.
type Record struct {
	Keyword string
	Docs    []int
}

// WriterDB is the content of one <id>.txt file.
type WriterDB struct {
	ID      int // 1-based, as in the file name
	Records []Record
}

// Index is the 0-based writer index used by the scheme.
func (w *WriterDB) Index() int { return w.ID - 1 }

// Pairs returns the number of (keyword, document) entries.
func (w *WriterDB) Pairs() int {
	total := 0
	for _, r := range w.Records {
		total += len(r.Docs)
	}
	return total
}

// Parse reads records from r. Blank lines are skipped.
func Parse(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		rec := Record{Keyword: fields[0], Docs: make([]int, 0, len(fields)-1)}
		for _, f := range fields[1:] {
			doc, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid document id %q", line, f)
			}
			rec.Docs = append(rec.Docs, doc)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}
	return out, nil
}

// Load reads every <id>.txt file in dir, ordered by id. Files whose name is
// not a positive integer are ignored.
func Load(dir string) ([]WriterDB, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset dir %s: %w", dir, err)
	}
	var dbs []WriterDB
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ".txt"))
		if err != nil || id <= 0 {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", e.Name(), err)
		}
		recs, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		dbs = append(dbs, WriterDB{ID: id, Records: recs})
	}
	sort.Slice(dbs, func(i, j int) bool { return dbs[i].ID < dbs[j].ID })
	for i := range dbs {
		if dbs[i].ID != i+1 {
			return nil, fmt.Errorf("dataset %s: writer ids must be 1..%d without gaps, found %d at position %d", dir, len(dbs), dbs[i].ID, i+1)
		}
	}
	return dbs, nil
}

// Write stores dbs in dir as <id>.txt files, creating dir if needed.
func Write(dir string, dbs []WriterDB) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating dataset dir %s: %w", dir, err)
	}
	for _, db := range dbs {
		var b strings.Builder
		for _, r := range db.Records {
			b.WriteString(r.Keyword)
			for _, d := range r.Docs {
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(d))
			}
			b.WriteByte('\n')
		}
		path := filepath.Join(dir, strconv.Itoa(db.ID)+".txt")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("error writing %s: %w", path, err)
		}
	}
	return nil
}

// GenOptions controls Generate.
type GenOptions struct {
	Writers           int
	KeywordsPerWriter int // capped at len(Vocabulary)
	MinDocs, MaxDocs  int
	MaxDocID          int // document ids are drawn from [1, MaxDocID)
	Seed              int64
}

// DefaultGenOptions matches the small reference dataset.
func DefaultGenOptions() GenOptions {
	return GenOptions{
		Writers:           25,
		KeywordsPerWriter: 150,
		MinDocs:           5,
		MaxDocs:           20,
		MaxDocID:          1000,
		Seed:              1,
	}
}

// Generate builds random writer databases over Vocabulary. The same options
// always produce the same output.
func Generate(opts GenOptions) ([]WriterDB, error) {
	switch {
	case opts.Writers <= 0:
		return nil, fmt.Errorf("writers must be > 0, got %d", opts.Writers)
	case opts.KeywordsPerWriter <= 0:
		return nil, fmt.Errorf("keywords per writer must be > 0, got %d", opts.KeywordsPerWriter)
	case opts.MinDocs <= 0 || opts.MaxDocs < opts.MinDocs:
		return nil, fmt.Errorf("invalid document range [%d, %d]", opts.MinDocs, opts.MaxDocs)
	case opts.MaxDocID-1 < opts.MaxDocs:
		return nil, fmt.Errorf("max doc id %d too small for %d documents", opts.MaxDocID, opts.MaxDocs)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	k := min(opts.KeywordsPerWriter, len(Vocabulary))
	dbs := make([]WriterDB, opts.Writers)
	for w := range dbs {
		dbs[w].ID = w + 1
		perm := rng.Perm(len(Vocabulary))[:k]
		dbs[w].Records = make([]Record, k)
		for i, p := range perm {
			count := opts.MinDocs + rng.Intn(opts.MaxDocs-opts.MinDocs+1)
			docs := rng.Perm(opts.MaxDocID - 1)[:count]
			for j := range docs {
				docs[j]++
			}
			sort.Ints(docs)
			dbs[w].Records[i] = Record{Keyword: Vocabulary[p], Docs: docs}
		}
	}
	return dbs, nil
}
