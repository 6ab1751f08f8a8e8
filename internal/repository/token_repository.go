package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/lib/pq"
)

type TokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

type tokenRow struct {
	Sub       string         `db:"sub"`
	Access    string         `db:"access"`
	Scope     pq.StringArray `db:"scope"`
	ExpiresAt time.Time      `db:"expires_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *TokenRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (
			sub, access, scope, expires_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5
		)`

	_, err := r.db.ExecContext(ctx, query,
		token.Sub,
		token.Access,
		pq.Array(token.Scope),
		token.ExpiresAt,
		time.Now(),
	)
	return err
}

func (r *TokenRepository) GetBySub(ctx context.Context, sub string) (*models.Token, error) {
	query := `
		SELECT sub, access, scope, expires_at, created_at
		FROM tokens
		WHERE sub = $1`

	var row tokenRow
	err := r.db.GetContext(ctx, &row, query, sub)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Token{
		Sub:       row.Sub,
		Access:    models.AccessLevel(row.Access),
		Scope:     row.Scope,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (r *TokenRepository) Delete(ctx context.Context, sub string) error {
	query := `DELETE FROM tokens WHERE sub = $1`
	result, err := r.db.ExecContext(ctx, query, sub)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
