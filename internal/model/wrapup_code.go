// internal/model/wrapup_code.go
package model

// WrapupCode maps a vendor wrap-up code id to its display name.
// Rows are appended when missing, never updated.
type WrapupCode struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
