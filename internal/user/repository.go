package user

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"absensi/internal/apperr"
	"absensi/internal/config"
	"absensi/internal/policy"
	"absensi/internal/store"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// TokenIssuer signs credentials for authenticated users.
type TokenIssuer interface {
	Issue(id policy.Identity) (string, error)
}

// Repository reads and appends rows of the Users table. Users are never
// updated or deleted here, and usernames are not checked for uniqueness.
type Repository struct {
	store  store.Store
	table  store.Table
	tokens TokenIssuer
	bcrypt bool
}

// NewRepository builds a user repository. passwordMode is
// config.PasswordPlaintext or config.PasswordBcrypt.
func NewRepository(s store.Store, table store.Table, tokens TokenIssuer, passwordMode string) *Repository {
	return &Repository{
		store:  s,
		table:  table,
		tokens: tokens,
		bcrypt: passwordMode == config.PasswordBcrypt,
	}
}

func (r *Repository) scan(ctx context.Context) ([]Record, error) {
	rows, err := r.store.Scan(ctx, r.table, store.All(r.table))
	if err != nil {
		log.Printf("[UserRepository] scan %s failed: %v", r.table.Name, err)
		return nil, apperr.Unavailable(err)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if row.Blank() {
			continue
		}
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

// List returns every user without passwords, in table order.
func (r *Repository) List(ctx context.Context, id policy.Identity) ([]Account, error) {
	if !policy.CanManageUsers(id) {
		return nil, apperr.ErrForbidden
	}
	records, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(records))
	for _, rec := range records {
		accounts = append(accounts, Account{Username: rec.Username, Role: rec.Role, Class: rec.Class})
	}
	return accounts, nil
}

// Validate checks a candidate without touching the store.
func (c Candidate) Validate() error {
	fields := map[string]string{}
	switch n := utf8.RuneCountInString(c.Username); {
	case n == 0:
		fields["username"] = "required"
	case n < minUsernameLen || n > maxUsernameLen:
		fields["username"] = fmt.Sprintf("must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	switch n := utf8.RuneCountInString(c.Password); {
	case n == 0:
		fields["password"] = "required"
	case n < minPasswordLen:
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLen)
	}
	if c.Role == "" {
		fields["role"] = "required"
	} else if !c.Role.Valid() {
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid user data", fields)
	}
	return nil
}

// Create appends a new user. Duplicate usernames are accepted.
func (r *Repository) Create(ctx context.Context, id policy.Identity, c Candidate) error {
	if !policy.CanManageUsers(id) {
		return apperr.ErrForbidden
	}
	if err := c.Validate(); err != nil {
		return err
	}
	password := c.Password
	if r.bcrypt {
		hash, err := HashPassword(c.Password)
		if err != nil {
			return fmt.Errorf("password hash failed: %w", err)
		}
		password = hash
	}
	rec := Record{Username: c.Username, Password: password, Role: c.Role, Class: c.Class}
	if err := r.store.Append(ctx, r.table, rec.row()); err != nil {
		log.Printf("[UserRepository] append %s failed: %v", r.table.Name, err)
		return apperr.Unavailable(err)
	}
	log.Printf("[UserRepository] %s created user %s (%s)", id.Username, c.Username, c.Role)
	return nil
}

// Authenticate finds the first row matching username and password and issues
// a credential for it. Unknown users and wrong passwords fail identically.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		fields := map[string]string{}
		if username == "" {
			fields["username"] = "required"
		}
		if password == "" {
			fields["password"] = "required"
		}
		return Session{}, apperr.Validation("username and password are required", fields)
	}
	records, err := r.scan(ctx)
	if err != nil {
		return Session{}, err
	}
	for _, rec := range records {
		if rec.Username != username || !r.passwordMatches(rec.Password, password) {
			continue
		}
		id := rec.Identity()
		token, err := r.tokens.Issue(id)
		if err != nil {
			return Session{}, err
		}
		return Session{Token: token, Identity: id}, nil
	}
	return Session{}, apperr.ErrInvalidCredentials
}

func (r *Repository) passwordMatches(stored, password string) bool {
	if r.bcrypt {
		return CheckPassword(stored, password) == nil
	}
	return plaintextEqual(stored, password)
}
