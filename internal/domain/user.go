package domain

type User struct {
	ChatID int64
}

type UserRepository interface {
	SaveUser(chatID int64) error
	ListChatIDs() ([]int64, error)
}
