// internal/model/user.go
package model

// User is a cached row from the vendor user directory, used to resolve an
// agent email from the agent user id.
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}
