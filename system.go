// Package hickae implements multi-writer keyword-searchable encryption with
// subset-selective aggregate trapdoors over BLS12-381.
//
// A System is set up in three steps that must run in order:
//
//	sys.Initialize(n)          // domain parameters and master key
//	sys.GenerateIdentities(n)  // one key pair per writer
//	sys.Precompute()           // n x n correlation table and class binding
//
// after which Encode and Extract may be called concurrently. Test needs only a
// key and a token.
package hickae

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Timings records how long each setup phase took.
type Timings struct {
	Setup    time.Duration // domain parameters
	KeyGen   time.Duration // master key
	IGen     time.Duration // writer identities
	Prep     time.Duration // correlation table and class binding
	Verified bool          // correlation table was re-checked with pairings
}

// state is immutable once published; setup steps publish a modified copy.
type state struct {
	pp      *DomainParameters
	msk     *MasterKeyPair
	writers []WriterIdentity
	corr    *CorrelationMatrix
	class   *ClassBindingKey
	anchors []classAnchor
	timings Timings
}

// System owns one deployment's cryptographic state. Setup steps take the
// write lock; Encode and Extract only read a snapshot.
type System struct {
	cfg Config
	log *logrus.Logger

	mu sync.RWMutex
	st *state
}

// New returns an uninitialized System.
func New(cfg Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &System{cfg: cfg, log: cfg.Logger}, nil
}

// Config returns the effective configuration.
func (s *System) Config() Config { return s.cfg }

func (s *System) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Initialize selects the pairing instance, samples the master key and starts a
// new epoch for n writers. Everything issued under a previous epoch is
// invalidated.
func (s *System) Initialize(n int) (*DomainParameters, *MasterKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	pp, err := setupDomain(n, s.cfg.Random)
	if err != nil {
		return nil, nil, err
	}
	setup := time.Since(start)

	start = time.Now()
	msk, err := generateMasterKey(pp, s.cfg.Random)
	if err != nil {
		return nil, nil, err
	}
	keygen := time.Since(start)

	if s.st != nil {
		s.log.WithField("epoch", s.st.pp.Epoch).Info("Discarding previous epoch")
	}
	s.st = &state{pp: pp, msk: msk, timings: Timings{Setup: setup, KeyGen: keygen}}

	s.log.WithFields(logrus.Fields{
		"writers": n,
		"curve":   pp.Curve,
		"epoch":   pp.Epoch,
		"setup":   setup,
		"keygen":  keygen,
	}).Info("System initialized")
	return pp, msk, nil
}

// GenerateIdentities derives the n writer key pairs. n must equal the count
// given to Initialize. Repeated calls return identical identities.
func (s *System) GenerateIdentities(n int) ([]WriterIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return nil, stateErr("generate identities", "system is not initialized")
	}
	if n != s.st.pp.Writers {
		return nil, paramErr("generate identities", "writer count %d does not match initialized count %d", n, s.st.pp.Writers)
	}

	start := time.Now()
	ids, err := deriveIdentities(s.st.pp, s.st.msk)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	next := *s.st
	next.writers = ids
	next.timings.IGen = elapsed
	s.st = &next

	s.log.WithFields(logrus.Fields{
		"writers": n,
		"elapsed": elapsed,
	}).Info("Writer identities generated")
	return append([]WriterIdentity(nil), ids...), nil
}

// Precompute builds the correlation table and class binding for the current
// identities. Its cost is O(n^2) group operations and memory.
func (s *System) Precompute() (*CorrelationMatrix, *ClassBindingKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return nil, nil, stateErr("precompute", "system is not initialized")
	}
	if s.st.writers == nil {
		return nil, nil, stateErr("precompute", "writer identities have not been generated")
	}
	n := len(s.st.writers)
	if n > s.cfg.MaxWriters {
		return nil, nil, paramErr("precompute", "%d writers exceed the configured table ceiling of %d", n, s.cfg.MaxWriters)
	}

	start := time.Now()
	cb, err := deriveClassBinding(s.st.pp, s.st.msk)
	if err != nil {
		return nil, nil, err
	}
	corr, err := buildCorrelation(s.st.pp, s.st.writers, s.cfg.Workers)
	if err != nil {
		return nil, nil, err
	}
	if s.cfg.VerifyCorrelation {
		if err := verifyCorrelation(s.st.pp, s.st.writers, corr, s.cfg.Workers); err != nil {
			return nil, nil, err
		}
	}
	anchors := deriveAnchors(cb, s.st.writers)
	elapsed := time.Since(start)

	next := *s.st
	next.corr = corr
	next.class = cb
	next.anchors = anchors
	next.timings.Prep = elapsed
	next.timings.Verified = s.cfg.VerifyCorrelation
	s.st = &next

	s.log.WithFields(logrus.Fields{
		"writers":  n,
		"entries":  n * n,
		"table":    humanize.Bytes(corr.MemoryBytes()),
		"verified": s.cfg.VerifyCorrelation,
		"elapsed":  elapsed,
	}).Info("Correlation table ready")
	return corr, cb, nil
}

// ready returns a snapshot with every setup step done.
func (s *System) ready(op string) (*state, error) {
	st := s.snapshot()
	switch {
	case st == nil:
		return nil, stateErr(op, "system is not initialized")
	case st.writers == nil:
		return nil, stateErr(op, "writer identities have not been generated")
	case st.corr == nil || st.class == nil:
		return nil, stateErr(op, "correlation table has not been precomputed")
	}
	return st, nil
}

// Encode produces a searchable token for writer i, keyword and payload.
func (s *System) Encode(i int, keyword string, payload []byte) (*PEKSToken, error) {
	st, err := s.ready("encode")
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= st.pp.Writers {
		return nil, rangeErr("encode", "writer index %d outside [0,%d)", i, st.pp.Writers)
	}
	tok, err := encodeToken(st.pp, &st.writers[i].PublicIdentity, &st.anchors[i], st.class, keyword, payload, s.cfg.Random)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"writer": i, "payload": len(payload)}).Debug("Token encoded")
	return tok, nil
}

// Extract produces one trapdoor for keyword valid for every writer in subset.
// Duplicates are ignored and order does not matter.
func (s *System) Extract(subset []int, keyword string) (*AggregateKey, error) {
	st, err := s.ready("extract")
	if err != nil {
		return nil, err
	}
	members, err := normalizeSubset("extract", subset, st.pp.Writers)
	if err != nil {
		return nil, err
	}
	key, err := extractKey(st.pp, st.writers, st.corr, st.class, members, keyword, s.cfg.Random, s.cfg.Workers)
	if err != nil {
		return nil, err
	}
	s.log.WithField("members", len(members)).Debug("Aggregate key extracted")
	return key, nil
}

// Params returns the current domain parameters.
func (s *System) Params() (*DomainParameters, error) {
	st := s.snapshot()
	if st == nil {
		return nil, stateErr("params", "system is not initialized")
	}
	return st.pp, nil
}

// Identities returns the public identities of every writer.
func (s *System) Identities() ([]PublicIdentity, error) {
	st := s.snapshot()
	if st == nil || st.writers == nil {
		return nil, stateErr("identities", "writer identities have not been generated")
	}
	out := make([]PublicIdentity, len(st.writers))
	for i := range st.writers {
		out[i] = st.writers[i].PublicIdentity
	}
	return out, nil
}

// Timings returns the durations of the setup phases run so far.
func (s *System) Timings() Timings {
	st := s.snapshot()
	if st == nil {
		return Timings{}
	}
	return st.timings
}
