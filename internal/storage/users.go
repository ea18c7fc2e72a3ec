package storage

import (
	"context"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

const userColumns = `id, username, email, nickname, phone, student_id, api_token, created_at`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Nickname, &u.Phone, &u.StudentID, &u.APIToken, &created)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// CreateUser inserts a user. The caller supplies the API token.
func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.timestamp()
	id, err := r.insert(ctx,
		`INSERT INTO users (username, email, nickname, phone, student_id, api_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Nickname, u.Phone, u.StudentID, u.APIToken, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.Conflict("username already exists")
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	u.CreatedAt = parseTime(now)

	storageLog(ctx).InfoContext(ctx, "User created", applog.FieldUserID, id, "username", u.Username)
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if isNoRows(err) {
		return core.User{}, notFound("user")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if isNoRows(err) {
		return core.User{}, notFound("user")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// GetUserByToken resolves a bearer token to its user.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_token = ?`, token))
	if isNoRows(err) {
		return core.User{}, notFound("user")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateUserToken(ctx context.Context, id int64, token string) error {
	res, err := r.exec(ctx, `UPDATE users SET api_token = ? WHERE id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("update user token: %w", err)
	}
	return affected(res, "user")
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
