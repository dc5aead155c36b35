package memory

import "sync"

// UserRepo remembers Telegram chats in the order they first appeared.
type UserRepo struct {
	mu    sync.RWMutex
	seen  map[int64]struct{}
	order []int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{seen: make(map[int64]struct{})}
}

func (r *UserRepo) SaveUser(chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[chatID]; ok {
		return nil
	}
	r.seen[chatID] = struct{}{}
	r.order = append(r.order, chatID)
	return nil
}

func (r *UserRepo) ListChatIDs() ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]int64, len(r.order))
	copy(res, r.order)
	return res, nil
}
