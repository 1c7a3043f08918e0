package repository

import (
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

type UserRepositoryInterface interface {
	GetByAPIKey(key string) (*model.User, error)
	Create(u *model.User) error
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) GetByAPIKey(key string) (*model.User, error) {
	query := `SELECT id, email, role, api_key, created_at FROM users WHERE api_key=$1`
	var u model.User
	err := r.DB.QueryRow(query, key).Scan(&u.ID, &u.Email, &u.Role, &u.APIKey, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // unknown key, not an infrastructure error
		}
		return nil, eris.Wrap(err, "user repository: get by api key")
	}
	return &u, nil
}

func (r *UserRepository) Create(u *model.User) error {
	u.CreatedAt = time.Now()
	if u.Role == "" {
		u.Role = model.RoleAnalyst
	}
	query := `
        INSERT INTO users (email, role, api_key, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE SET role=EXCLUDED.role, api_key=EXCLUDED.api_key
        RETURNING id
    `
	if err := r.DB.QueryRow(query, u.Email, u.Role, u.APIKey, u.CreatedAt).Scan(&u.ID); err != nil {
		return eris.Wrap(err, "user repository: create")
	}
	return nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
