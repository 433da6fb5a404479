package auth

import (
	"context"

	"timeoff/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var user AuthUser
	if err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, role, password_hash
    FROM users
    WHERE lower(email) = lower($1)
  `, email).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.PasswordHash); err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	if err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, role, vacation_balance, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.VacationBalance, &user.CreatedAt); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, email, full_name, role, vacation_balance, created_at
    FROM users
    ORDER BY full_name, email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.VacationBalance, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
