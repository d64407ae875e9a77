package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftline/marketplace/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateAccount = errors.New("account already exists")
)

const (
	InsertAccountQuery = `
        INSERT INTO
            accounts (login, hash, role)
        VALUES ($1, $2, $3)
    `
	SelectAccountQuery = `
        SELECT
            id,
            login,
            hash,
            role
        FROM
            accounts
        WHERE
            login = $1
    `
)

type AccountDB struct {
	models.Account
}

// CreateAccount inserts a new account.
func (d *Database) CreateAccount(ctx context.Context, account AccountDB) error {
	if _, err := d.db.Exec(ctx, InsertAccountQuery, account.Login, account.Hash, string(account.Role)); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccount looks an account up by login. Returns nil without error when
// no account exists.
func (d *Database) FindAccount(ctx context.Context, login string) (*AccountDB, error) {
	account := &AccountDB{}

	var role string
	if err := d.db.QueryRow(ctx, SelectAccountQuery, login).Scan(&account.ID, &account.Login, &account.Hash, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	account.Role = models.Role(role)

	return account, nil
}
