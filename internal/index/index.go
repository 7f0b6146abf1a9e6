// Package index keeps searchable tokens in memory and scans them with an
// aggregate key on behalf of a search server.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	hickae "github.com/Alfred-hhy/HICKAE-DB"
	"github.com/Alfred-hhy/HICKAE-DB/internal/workers"
)

var (
	ErrNilToken = errors.New("index: nil token")
	ErrNilKey   = errors.New("index: nil key")
)

// Hit is one matching token.
type Hit struct {
	Writer  int
	Payload []byte
}

// Result is the outcome of one search.
type Result struct {
	Hits    []Hit
	Scanned int           // tokens tested
	Latency time.Duration // server-side scan time
}

// Index stores tokens in per-writer buckets. All tokens must share one epoch.
type Index struct {
	workers int
	log     *logrus.Logger

	mu      sync.RWMutex
	epoch   hickae.Epoch
	set     bool
	buckets map[int][]*hickae.PEKSToken
	size    int
}

// New returns an empty index scanning with up to workers goroutines
// (0 means GOMAXPROCS).
func New(workers int, log *logrus.Logger) *Index {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Index{workers: workers, log: log, buckets: make(map[int][]*hickae.PEKSToken)}
}

// Add stores tok. Tokens from a different epoch than the first one are rejected.
func (x *Index) Add(tok *hickae.PEKSToken) error {
	if tok == nil {
		return ErrNilToken
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.set {
		x.epoch = tok.Epoch()
		x.set = true
	} else if tok.Epoch() != x.epoch {
		return fmt.Errorf("token epoch %s does not match index epoch %s", tok.Epoch(), x.epoch)
	}
	x.buckets[tok.Writer()] = append(x.buckets[tok.Writer()], tok)
	x.size++
	return nil
}

// Len returns the number of stored tokens.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

// Reset drops every token and the epoch binding.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.buckets = make(map[int][]*hickae.PEKSToken)
	x.size = 0
	x.set = false
}

// Search tests key against the buckets of the writers it covers. Hits are
// ordered by writer, then by insertion.
func (x *Index) Search(ctx context.Context, key *hickae.AggregateKey) (Result, error) {
	if key == nil {
		return Result{}, ErrNilKey
	}
	start := time.Now()

	x.mu.RLock()
	var candidates []*hickae.PEKSToken
	if x.set && key.Epoch() == x.epoch {
		for _, w := range key.Members() {
			candidates = append(candidates, x.buckets[w]...)
		}
	}
	x.mu.RUnlock()

	matched := make([]bool, len(candidates))
	err := workers.Range(len(candidates), x.workers, func(s, e int) error {
		for i := s; i < e; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			matched[i] = hickae.Test(key, candidates[i])
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Scanned: len(candidates)}
	for i, ok := range matched {
		if ok {
			tok := candidates[i]
			res.Hits = append(res.Hits, Hit{Writer: tok.Writer(), Payload: tok.Payload()})
		}
	}
	res.Latency = time.Since(start)

	x.log.WithFields(logrus.Fields{
		"members": len(key.Members()),
		"scanned": res.Scanned,
		"hits":    len(res.Hits),
		"latency": res.Latency,
	}).Debug("Search complete")
	return res, nil
}
