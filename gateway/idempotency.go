package gateway

import (
	"time"

	"github.com/KeyurIITGN/Strife/payment"

	cache "github.com/patrickmn/go-cache"
)

// OutcomeCache remembers the terminal outcome of every payment id the
// gateway has finished deciding. Lookups precede all bank communication so
// a client retry of a decided payment never reaches a participant. Only
// terminal outcomes are stored; transient failures stay uncached so retries
// can still progress.
type OutcomeCache struct {
	cache *cache.Cache
}

// NewOutcomeCache - an empty idempotency cache with the given entry lifetime
func NewOutcomeCache(ttl time.Duration) *OutcomeCache {
	return &OutcomeCache{
		cache: cache.New(ttl, time.Hour),
	}
}

// Get returns the cached terminal outcome for a payment id if one exists.
func (c *OutcomeCache) Get(paymentID string) (*payment.PaymentResponse, bool) {
	v, ok := c.cache.Get(paymentID)
	if !ok {
		return nil, false
	}
	resp, ok := v.(*payment.PaymentResponse)
	return resp, ok
}

// Put stores a terminal outcome under the payment id.
func (c *OutcomeCache) Put(paymentID string, resp *payment.PaymentResponse) {
	c.cache.Set(paymentID, resp, cache.DefaultExpiration)
}

// Len returns the number of cached outcomes.
func (c *OutcomeCache) Len() int {
	return c.cache.ItemCount()
}
