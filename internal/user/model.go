package user

import (
	"absensi/internal/policy"
	"absensi/internal/store"
)

// Users table columns.
const (
	colUsername = iota
	colPassword
	colRole
	colClass
)

// Record is one row of the Users table. Password holds the plaintext value
// or, in bcrypt mode, the hash.
type Record struct {
	Username string
	Password string
	Role     policy.Role
	Class    string
}

func recordFromRow(row store.Row) Record {
	return Record{
		Username: row.Cell(colUsername),
		Password: row.Cell(colPassword),
		Role:     policy.Role(row.Cell(colRole)),
		Class:    row.Cell(colClass),
	}
}

func (r Record) row() store.Row {
	return store.Row{r.Username, r.Password, string(r.Role), r.Class}
}

func (r Record) Identity() policy.Identity {
	return policy.Identity{Username: r.Username, Role: r.Role, Class: r.Class}
}

// Account is a user as returned to callers, without the password.
type Account struct {
	Username string      `json:"username"`
	Role     policy.Role `json:"role"`
	Class    string      `json:"class"`
}

// Candidate is the input for creating a user.
type Candidate struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     policy.Role `json:"role"`
	Class    string      `json:"class"`
}

// Session is the result of a successful login.
type Session struct {
	Token    string          `json:"token"`
	Identity policy.Identity `json:"identity"`
}
