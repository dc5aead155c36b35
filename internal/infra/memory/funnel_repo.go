package memory

import (
	"sort"
	"sync"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

type FunnelRepo struct {
	mu     sync.RWMutex
	counts map[usecase.Step]map[string]struct{}
}

func NewFunnelRepo() *FunnelRepo {
	return &FunnelRepo{counts: make(map[usecase.Step]map[string]struct{})}
}

func (r *FunnelRepo) Hit(step usecase.Step, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.counts[step]
	if !ok {
		m = make(map[string]struct{})
		r.counts[step] = m
	}
	m[key] = struct{}{}
	return nil
}

func (r *FunnelRepo) Keys(step usecase.Step) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.counts[step]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (r *FunnelRepo) Counts() map[usecase.Step]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[usecase.Step]int, len(r.counts))
	for s, set := range r.counts {
		out[s] = len(set)
	}
	return out
}
