package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// CreateUser inserts a new account and returns it with the assigned ID.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = RoleStudent
	}
	u.CreatedAt = time.Now().Unix()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, hashed_password, role, refresh_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.Email, u.HashedPassword, u.Role, u.RefreshToken, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	return nil
}

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	var u User
	var refresh sql.NullString
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
		&u.HashedPassword, &u.Role, &refresh, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.RefreshToken = refresh.String
	return &u, nil
}

const userColumns = `id, first_name, last_name, email, hashed_password, role, refresh_token, created_at`

// UserByEmail looks up an account by email.
func (db *DB) UserByEmail(ctx context.Context, email string) (*User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UserByID looks up an account by primary key.
func (db *DB) UserByID(ctx context.Context, id int64) (*User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// UpdateUser persists profile fields (name, email, password hash).
func (db *DB) UpdateUser(ctx context.Context, u *User) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, email = ?, hashed_password = ? WHERE id = ?`,
		u.FirstName, u.LastName, u.Email, u.HashedPassword, u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

// UpdateUserRole changes the role of an account.
func (db *DB) UpdateUserRole(ctx context.Context, id int64, role string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("update role for user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores the current refresh token, empty to revoke.
func (db *DB) SetRefreshToken(ctx context.Context, id int64, token string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE users SET refresh_token = ? WHERE id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("set refresh token for user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes an account; analyses cascade.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns accounts ordered by ID with simple offset pagination.
func (db *DB) ListUsers(ctx context.Context, offset, limit int) ([]*User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		var refresh sql.NullString
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
			&u.HashedPassword, &u.Role, &refresh, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.RefreshToken = refresh.String
		users = append(users, &u)
	}
	return users, rows.Err()
}
