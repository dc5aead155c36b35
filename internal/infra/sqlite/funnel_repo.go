package sqlite

import (
	"database/sql"
	"time"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *sql.DB) *FunnelRepo {
	return &FunnelRepo{db: db}
}

// Hit records the first time key reaches step; repeats are ignored.
func (r *FunnelRepo) Hit(step usecase.Step, key string) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(conversation, step, created_at) VALUES(?,?,?) ON CONFLICT(conversation, step) DO NOTHING`,
		key, step.String(), time.Now())
	return err
}

func (r *FunnelRepo) Keys(step usecase.Step) ([]string, error) {
	rows, err := r.db.Query(`SELECT conversation FROM funnel_hits WHERE step = ? ORDER BY id`, step.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *FunnelRepo) Counts() map[usecase.Step]int {
	out := map[usecase.Step]int{}
	rows, err := r.db.Query(`SELECT step, COUNT(DISTINCT conversation) FROM funnel_hits GROUP BY step`)
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var cnt int
		if err := rows.Scan(&name, &cnt); err != nil {
			continue
		}
		if step, ok := usecase.ParseStep(name); ok {
			out[step] = cnt
		}
	}
	return out
}
