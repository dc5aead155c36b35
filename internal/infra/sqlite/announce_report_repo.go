package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

type AnnounceReportRepo struct {
	db *sql.DB
}

func NewAnnounceReportRepo(db *sql.DB) *AnnounceReportRepo {
	return &AnnounceReportRepo{db: db}
}

func (r *AnnounceReportRepo) Save(rep usecase.AnnounceReport) error {
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO announce_reports(audience, total, sent, failed, created_at) VALUES(?,?,?,?,?)`,
		rep.Audience.String(), rep.Total, rep.Sent, rep.Failed, rep.CreatedAt)
	return err
}

func (r *AnnounceReportRepo) ListRecent(n int) ([]usecase.AnnounceReport, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.Query(`SELECT audience, total, sent, failed, created_at FROM announce_reports ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]usecase.AnnounceReport, 0, n)
	for rows.Next() {
		var (
			rep      usecase.AnnounceReport
			audience string
		)
		if err := rows.Scan(&audience, &rep.Total, &rep.Sent, &rep.Failed, &rep.CreatedAt); err != nil {
			return nil, err
		}
		aud, ok := usecase.ParseAudience(audience)
		if !ok {
			return nil, fmt.Errorf("announce report: unknown audience %q", audience)
		}
		rep.Audience = aud
		out = append(out, rep)
	}
	return out, rows.Err()
}
