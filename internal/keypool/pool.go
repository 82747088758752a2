// Package keypool tracks the quota state of a fixed, ordered set of API keys
// and hands out the one that should be used next. Keys advance through
// UNTESTED -> ACTIVE and drop to EXHAUSTED or INVALID on reported outcomes;
// EXHAUSTED is terminal until the next quota epoch, INVALID is terminal until
// the key list is reconfigured.
package keypool

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"comment_analyzer/internal/domain"
)

type State int

const (
	Untested State = iota
	Active
	Exhausted
	Invalid
)

func (s State) String() string {
	switch s {
	case Untested:
		return "untested"
	case Active:
		return "active"
	case Exhausted:
		return "exhausted"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Outcome is what a caller observed when using a key.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeQuotaExceeded
	OutcomeInvalid
	OutcomeTransient
)

// entry guards one key's state. Locking is per entry so sessions rotating on
// different keys never contend on a pool-wide lock.
type entry struct {
	mu         sync.Mutex
	key        string
	state      State
	lastUsedAt time.Time
}

// Pool owns the configured keys in their configured order. Set membership is
// immutable for the life of the process.
type Pool struct {
	// selMu serializes selection and promotion so only one key can hold
	// ACTIVE at a time. Outcome reporting stays on the per-entry locks.
	selMu   sync.Mutex
	entries []*entry
	byKey   map[string]*entry
	now     func() time.Time
	logger  *slog.Logger
}

// Status is a point-in-time snapshot of the pool.
type Status struct {
	Total     int `json:"total"`
	Untested  int `json:"untested"`
	Active    int `json:"active"`
	Exhausted int `json:"exhausted"`
	Invalid   int `json:"invalid"`
}

func New(keys []string, logger *slog.Logger) *Pool {
	p := &Pool{
		byKey:  make(map[string]*entry, len(keys)),
		now:    time.Now,
		logger: logger.With("component", "keypool"),
	}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := p.byKey[k]; dup {
			continue
		}
		e := &entry{key: k}
		p.entries = append(p.entries, e)
		p.byKey[k] = e
	}
	return p
}

// Active returns the key to use for the next request. Selection is strict
// list order: the current ACTIVE key wins, otherwise the first UNTESTED key
// is promoted. Concurrent callers agree on a single key; without the pool
// lock two callers could both miss an ACTIVE key on the first pass and each
// promote a different entry. Returns domain.ErrNoCredentials when every key
// is EXHAUSTED or INVALID.
func (p *Pool) Active() (string, error) {
	p.selMu.Lock()
	defer p.selMu.Unlock()

	for _, e := range p.entries {
		e.mu.Lock()
		if e.state == Active {
			k := e.key
			e.mu.Unlock()
			return k, nil
		}
		e.mu.Unlock()
	}
	for _, e := range p.entries {
		e.mu.Lock()
		if e.state == Untested {
			e.state = Active
			k := e.key
			e.mu.Unlock()
			p.logger.Info("promoted api key", "key", redact(k))
			return k, nil
		}
		e.mu.Unlock()
	}
	return "", domain.ErrNoCredentials
}

// ReportOutcome applies one fetch outcome to a key's state. Unknown keys are
// ignored. EXHAUSTED and INVALID are never overwritten by a later Success;
// rotation may already have moved on by the time a stale success lands.
func (p *Pool) ReportOutcome(key string, outcome Outcome) {
	e, ok := p.byKey[key]
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch outcome {
	case OutcomeSuccess:
		if e.state == Untested || e.state == Active {
			e.state = Active
			e.lastUsedAt = p.now()
		}
	case OutcomeQuotaExceeded:
		if e.state != Invalid {
			e.state = Exhausted
			p.logger.Warn("api key exhausted for this epoch", "key", redact(key))
		}
	case OutcomeInvalid:
		e.state = Invalid
		p.logger.Error("api key rejected by source", "key", redact(key))
	case OutcomeTransient:
		// no state change, the caller retries the same key
	}
}

// Status reads current state directly off the entries; nothing is cached.
func (p *Pool) Status() Status {
	st := Status{Total: len(p.entries)}
	for _, e := range p.entries {
		e.mu.Lock()
		switch e.state {
		case Untested:
			st.Untested++
		case Active:
			st.Active++
		case Exhausted:
			st.Exhausted++
		case Invalid:
			st.Invalid++
		}
		e.mu.Unlock()
	}
	return st
}

// ResetEpoch makes EXHAUSTED keys eligible again at the start of a new quota
// epoch. INVALID keys stay invalid; a new day does not fix a bad key. Safe to
// call repeatedly. Returns the number of keys reset.
func (p *Pool) ResetEpoch() int {
	reset := 0
	for _, e := range p.entries {
		e.mu.Lock()
		if e.state == Exhausted {
			e.state = Untested
			reset++
		}
		e.mu.Unlock()
	}
	if reset > 0 {
		p.logger.Info("quota epoch reset", "keys_reset", reset)
	}
	return reset
}

// redact keeps logs useful without leaking full secrets.
func redact(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-2:]
}
