package sqlite

import (
	"database/sql"
	"time"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) SaveUser(chatID int64) error {
	_, err := r.db.Exec(`INSERT INTO users(chat_id, created_at) VALUES(?, ?) ON CONFLICT(chat_id) DO NOTHING`, chatID, time.Now())
	return err
}

func (r *UserRepo) ListChatIDs() ([]int64, error) {
	rows, err := r.db.Query(`SELECT chat_id FROM users ORDER BY created_at, chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
