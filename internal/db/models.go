package db

// ChatRef identifies a chat row considered for pruning. Open WebUI stores
// chat timestamps as unix epoch seconds in a bigint column.
type ChatRef struct {
	ID        string
	UserID    string
	CreatedAt int64
}
