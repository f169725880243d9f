package domain

// User models a registered storefront account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Public is the view of a user that may leave the process.
type Public struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Public strips the password record.
func (u *User) Public() Public {
	return Public{ID: u.ID, Username: u.Username}
}
