package chat

// User is the identity a connection is bound to after authentication.
// Users are immutable as far as this package is concerned.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
