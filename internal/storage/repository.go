package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finova/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs
	// to a different owner; callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already in use")
)

const timeLayout = time.RFC3339Nano

// User is an account row in the identity store.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Repository is the SQLite-backed document store for users and
// transactions. All transaction access is scoped by owner id.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// newTransactionID returns an opaque identifier for a new record.
func newTransactionID() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateTransaction inserts a record owned by ownerID. The id and
// creation timestamp are assigned here, never by the caller.
func (r *Repository) CreateTransaction(ctx context.Context, ownerID int64, f core.TransactionFields) (core.Transaction, error) {
	id, err := newTransactionID()
	if err != nil {
		return core.Transaction{}, err
	}
	createdAt := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, title, amount_cents, category, kind, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, f.Title, f.Amount.Cents, string(f.Category), string(f.Kind), f.Date,
		createdAt.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"owner_id", ownerID,
		"kind", string(f.Kind),
		"amount_cents", f.Amount.Cents)

	return core.Transaction{
		ID:        id,
		OwnerID:   ownerID,
		Title:     f.Title,
		Amount:    f.Amount,
		Category:  f.Category,
		Kind:      f.Kind,
		Date:      f.Date,
		CreatedAt: createdAt,
	}, nil
}

// ListByOwner returns every transaction owned by ownerID ordered by
// creation time descending; ties fall back to id for a stable order.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, date, created_at
		 FROM transactions
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// GetTransaction returns a single record scoped to ownerID.
func (r *Repository) GetTransaction(ctx context.Context, ownerID int64, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, kind, date, created_at
		 FROM transactions
		 WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return tx, err
}

// UpdateTransaction replaces the editable fields of a record. The
// owner scope keeps one user from touching another user's rows.
func (r *Repository) UpdateTransaction(ctx context.Context, ownerID int64, id string, f core.TransactionFields) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount_cents = ?, category = ?, kind = ?, date = ?
		 WHERE id = ? AND owner_id = ?`,
		f.Title, f.Amount.Cents, string(f.Category), string(f.Kind), f.Date, id, ownerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "owner_id", ownerID)
	return nil
}

// DeleteTransaction removes a record scoped to ownerID.
func (r *Repository) DeleteTransaction(ctx context.Context, ownerID int64, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "owner_id", ownerID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		category  string
		kind      string
		createdAt string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Title, &tx.Amount.Cents, &category, &kind, &tx.Date, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Category = core.Category(category)
	tx.Kind = core.Kind(kind)
	if tx.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return tx, nil
}

// CreateUser inserts a new account and returns it with the assigned id.
func (r *Repository) CreateUser(ctx context.Context, email string, passwordHash []byte) (User, error) {
	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, string(passwordHash), createdAt.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "owner_id", id, "email", email)
	return User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

// GetUserByEmail looks an account up by its (unique) email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.getUser(ctx,
		`SELECT id, email, password_hash, created_at, last_login_at FROM users WHERE email = ?`, email)
}

// GetUserByID looks an account up by id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (User, error) {
	return r.getUser(ctx,
		`SELECT id, email, password_hash, created_at, last_login_at FROM users WHERE id = ?`, id)
}

func (r *Repository) getUser(ctx context.Context, query string, arg any) (User, error) {
	var (
		u           User
		hash        string
		createdAt   string
		lastLoginAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &hash, &createdAt, &lastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.PasswordHash = []byte(hash)
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if lastLoginAt.Valid {
		t, err := time.Parse(timeLayout, lastLoginAt.String)
		if err != nil {
			return User{}, fmt.Errorf("parse last_login_at %q: %w", lastLoginAt.String, err)
		}
		u.LastLoginAt = &t
	}
	return u, nil
}

// UpdatePassword replaces an account's password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, string(passwordHash), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin stamps the account's most recent sign-in time.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
