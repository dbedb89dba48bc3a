package dispatch

import "sync"

// CallSite links a candidate list lazily: the list is validated on the first
// Invoke and the outcome, site or error, is reused by every later call.
type CallSite struct {
	sig        Signature
	candidates []Candidate

	once sync.Once
	site *Site
	err  error
}

// NewCallSite records a candidate list without validating it
func NewCallSite(sig Signature, candidates []Candidate) *CallSite {
	return &CallSite{sig: sig, candidates: candidates}
}

// Link bootstraps the site if it has not been bootstrapped yet
func (c *CallSite) Link() (*Site, error) {
	c.once.Do(func() {
		c.site, c.err = Bootstrap(c.sig, c.candidates)
	})
	return c.site, c.err
}

// Invoke runs the helper for one value and start index
func (c *CallSite) Invoke(v Value, start int) (int, error) {
	site, err := c.Link()
	if err != nil {
		return 0, err
	}
	return site.Dispatch(v, start)
}
