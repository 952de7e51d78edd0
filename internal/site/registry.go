package site

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrNotSupported is returned by Detect for hosts no adapter covers.
var ErrNotSupported = errors.New("site not supported")

// Registry holds the process-wide adapters, keyed by domain.
type Registry struct {
	adapters []Adapter
}

// NewRegistry validates that every hostname can match at most one adapter.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{}
	for _, a := range adapters {
		domain := strings.ToLower(strings.TrimSpace(a.Domain))
		if domain == "" {
			return nil, fmt.Errorf("adapter %q has no domain", a.Name)
		}
		if a.Pagination == nil {
			return nil, fmt.Errorf("adapter %q has no pagination", a.Name)
		}
		for _, existing := range r.adapters {
			if matchesDomain(domain, existing.Domain) || matchesDomain(existing.Domain, domain) {
				return nil, fmt.Errorf("adapter %q overlaps %q", a.Domain, existing.Domain)
			}
		}
		a.Domain = domain
		r.adapters = append(r.adapters, a.clone())
	}
	return r, nil
}

// Detect returns the adapter whose domain equals hostname or is a dot-suffix of it.
func (r *Registry) Detect(hostname string) (Adapter, error) {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	for _, a := range r.adapters {
		if matchesDomain(host, a.Domain) {
			return a.clone(), nil
		}
	}
	return Adapter{}, fmt.Errorf("%w: %s", ErrNotSupported, hostname)
}

// Lookup finds an adapter by its name (case-insensitive) or domain.
func (r *Registry) Lookup(key string) (Adapter, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, a := range r.adapters {
		if strings.ToLower(a.Name) == key || a.Domain == key {
			return a.clone(), true
		}
	}
	return Adapter{}, false
}

// Adapters lists every registered adapter in registration order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.clone())
	}
	return out
}

func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
