package database

import (
	"context"

	"github-sentinel/internal/model"
)

const userColumns = `id, username, email, github_token, notification_preferences, created_at, updated_at`

const createUser = `
INSERT INTO users (username, email, github_token, notification_preferences)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username                string
	Email                   string
	GithubToken             string
	NotificationPreferences map[model.NotificationChannel]bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*model.User, error) {
	prefs := arg.NotificationPreferences
	if prefs == nil {
		prefs = map[model.NotificationChannel]bool{}
	}
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.Email, arg.GithubToken, prefs)
	u, err := scanUser(row)
	return u, wrapErr("create user", err)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, getUserByID, id))
	return u, wrapErr("get user", err)
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
	return u, wrapErr("get user by username", err)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
	return u, wrapErr("get user by email", err)
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countUsers).Scan(&n)
	return n, wrapErr("count users", err)
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.GithubToken,
		&u.NotificationPreferences,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
