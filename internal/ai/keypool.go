package ai

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"meetscribe/internal/logging"
	"meetscribe/internal/metrics"
)

// Credential is one API key slot with its load and health bookkeeping. Key and
// Index are immutable after construction; the counters are guarded by the
// owning pool's mutex.
type Credential struct {
	Key            string
	Index          int
	ActiveRequests int
	TotalRequests  int
	FailedRequests int
	Blocked        bool
}

// CredentialStats is a point-in-time copy of one credential's counters with
// the secret masked for display.
type CredentialStats struct {
	Index          int    `json:"index"`
	Key            string `json:"key"`
	ActiveRequests int    `json:"active_requests"`
	TotalRequests  int    `json:"total_requests"`
	FailedRequests int    `json:"failed_requests"`
	Blocked        bool   `json:"blocked"`
}

// KeyPool arbitrates shared use of the configured API keys across concurrent
// callers. Selection favors the least-loaded non-blocked key; when every key
// is blocked the pool still hands out the least-loaded one so requests keep
// flowing. Keys are never removed at runtime.
type KeyPool struct {
	mu    sync.Mutex
	creds []*Credential
	log   zerolog.Logger
}

// NewKeyPool builds a pool over the given keys in slot order.
func NewKeyPool(keys []string) (*KeyPool, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	p := &KeyPool{log: logging.Component("keypool")}
	for i, key := range keys {
		p.creds = append(p.creds, &Credential{Key: key, Index: i})
	}
	p.log.Info().Int("keys", len(p.creds)).Msg("API key pool initialized")
	return p, nil
}

// Size returns the number of keys in the pool.
func (p *KeyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Acquire selects the credential with the fewest active requests, preferring
// non-blocked keys, and increments its load counters. Ties break on the
// lowest index.
func (p *KeyPool) Acquire() (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.creds) == 0 {
		return nil, ErrNoCredentials
	}

	candidates := make([]*Credential, 0, len(p.creds))
	for _, c := range p.creds {
		if !c.Blocked {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		// Degraded mode: keep serving on blocked keys rather than refusing.
		candidates = p.creds
		p.log.Warn().Msg("all API keys are blocked, using the least loaded one")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ActiveRequests < best.ActiveRequests {
			best = c
		}
	}

	best.ActiveRequests++
	best.TotalRequests++
	metrics.ActiveKeyRequests.WithLabelValues(strconv.Itoa(best.Index + 1)).Set(float64(best.ActiveRequests))
	p.log.Debug().
		Int("key", best.Index+1).
		Int("active", best.ActiveRequests).
		Int("total", best.TotalRequests).
		Msg("key acquired")
	return best, nil
}

// Release returns a credential after a request finishes. The active counter
// never goes below zero; credentials the pool does not own are ignored.
func (p *KeyPool) Release(c *Credential) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(c) {
		return
	}
	if c.ActiveRequests > 0 {
		c.ActiveRequests--
	}
	metrics.ActiveKeyRequests.WithLabelValues(strconv.Itoa(c.Index + 1)).Set(float64(c.ActiveRequests))
	p.log.Debug().Int("key", c.Index+1).Int("active", c.ActiveRequests).Msg("key released")
}

// MarkFailed records a failed request against a credential, optionally
// blocking it until the next observed success.
func (p *KeyPool) MarkFailed(c *Credential, blockTemporarily bool) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(c) {
		return
	}
	c.FailedRequests++
	if blockTemporarily && !c.Blocked {
		c.Blocked = true
		metrics.BlockedKeys.Inc()
		p.log.Warn().Int("key", c.Index+1).Int("failures", c.FailedRequests).Msg("key temporarily blocked")
		return
	}
	p.log.Warn().Int("key", c.Index+1).Int("failures", c.FailedRequests).Msg("request failed on key")
}

// Unblock clears the blocked flag. Called after any successful request so a
// key sidelined by rate limiting heals on its own.
func (p *KeyPool) Unblock(c *Credential) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(c) {
		return
	}
	if c.Blocked {
		c.Blocked = false
		metrics.BlockedKeys.Dec()
		p.log.Info().Int("key", c.Index+1).Msg("key unblocked")
	}
}

// WithCredential runs fn with an acquired credential and guarantees release
// on every exit path, including panics and cancellation in fn.
func (p *KeyPool) WithCredential(fn func(*Credential) error) error {
	c, err := p.Acquire()
	if err != nil {
		return err
	}
	defer p.Release(c)
	return fn(c)
}

// Stats returns a snapshot of every credential's counters.
func (p *KeyPool) Stats() []CredentialStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := make([]CredentialStats, 0, len(p.creds))
	for _, c := range p.creds {
		stats = append(stats, CredentialStats{
			Index:          c.Index,
			Key:            maskKey(c.Key),
			ActiveRequests: c.ActiveRequests,
			TotalRequests:  c.TotalRequests,
			FailedRequests: c.FailedRequests,
			Blocked:        c.Blocked,
		})
	}
	return stats
}

// owns must be called with the mutex held.
func (p *KeyPool) owns(c *Credential) bool {
	for _, have := range p.creds {
		if have == c {
			return true
		}
	}
	return false
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
