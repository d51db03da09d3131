package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/courseloop/courseloop/internal/user"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	query := `SELECT id, email, name, password_hash, is_active, created_at, updated_at FROM users WHERE id = $1`
	if err := r.db.Get(&u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d not found", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetPermissions(userID int64) ([]string, error) {
	var perms []string
	query := `
		SELECT p.name
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name`
	if err := r.db.Select(&perms, query, userID); err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}
	return perms, nil
}
