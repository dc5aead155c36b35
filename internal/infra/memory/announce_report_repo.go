package memory

import (
	"sync"
	"time"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

const defaultReportCap = 64

// AnnounceReportRepo keeps the latest announcement reports in a ring.
type AnnounceReportRepo struct {
	mu      sync.RWMutex
	reports []usecase.AnnounceReport
	next    int
	full    bool
	now     func() time.Time
}

func NewAnnounceReportRepo() *AnnounceReportRepo {
	return &AnnounceReportRepo{
		reports: make([]usecase.AnnounceReport, defaultReportCap),
		now:     time.Now,
	}
}

func (r *AnnounceReportRepo) Save(rep usecase.AnnounceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = r.now()
	}
	r.reports[r.next] = rep
	r.next = (r.next + 1) % len(r.reports)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecent returns up to n reports, newest first. n <= 0 means all.
func (r *AnnounceReportRepo) ListRecent(n int) ([]usecase.AnnounceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	size := r.next
	if r.full {
		size = len(r.reports)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]usecase.AnnounceReport, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.reports)) % len(r.reports)
		out = append(out, r.reports[idx])
	}
	return out, nil
}
