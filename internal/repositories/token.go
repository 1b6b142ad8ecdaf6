package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

const tokenColumns = `
	id, sequence, provider, access_token, refresh_token, token_type,
	expiry, created_at, updated_at, deleted_at
`

// TokenRepository implements [models.Repository] for OAuth [models.Token] persistence.
type TokenRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Token] = (*TokenRepository)(nil)

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token with generated ID and sequence
func (r *TokenRepository) Create(token *models.Token) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tokens")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO tokens (
			id, sequence, provider, access_token, refresh_token, token_type,
			expiry, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		token.Provider(),
		token.AccessToken(),
		nullString(token.RefreshToken()),
		nullString(token.TokenType()),
		nullTime(token.Expiry()),
		token.CreatedAt(),
		token.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	token.SetID(id)
	token.SetSequence(sequence)
	return nil
}

// Get retrieves a token by ID, excluding soft-deleted tokens
func (r *TokenRepository) Get(id string) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// FindByProvider returns the most recent live token for provider.
func (r *TokenRepository) FindByProvider(provider string) (*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, provider))
}

// Update modifies the credential fields of an existing token
func (r *TokenRepository) Update(token *models.Token) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	token.SetUpdatedAt(now)

	query := `
		UPDATE tokens
		SET access_token = ?, refresh_token = ?, token_type = ?, expiry = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		token.AccessToken(),
		nullString(token.RefreshToken()),
		nullString(token.TokenType()),
		nullTime(token.Expiry()),
		now,
		token.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	return expectRow(result, token.ID())
}

// Upsert stores token as the live token of its provider, updating the existing row when present.
func (r *TokenRepository) Upsert(token *models.Token) error {
	existing, err := r.FindByProvider(token.Provider())
	if errors.Is(err, shared.ErrTokenNotFound) {
		return r.Create(token)
	}
	if err != nil {
		return err
	}

	existing.SetAccessToken(token.AccessToken())
	existing.SetRefreshToken(token.RefreshToken())
	existing.SetTokenType(token.TokenType())
	existing.SetExpiry(token.Expiry())
	if err := r.Update(existing); err != nil {
		return err
	}

	token.SetID(existing.ID())
	token.SetSequence(existing.Sequence())
	token.SetRefreshToken(existing.RefreshToken())
	return nil
}

// Delete soft-deletes a token by ID
func (r *TokenRepository) Delete(id string) error {
	query := `
		UPDATE tokens
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves tokens matching the given criteria, newest first.
//
// Supported criteria: "provider" (string).
func (r *TokenRepository) List(criteria map[string]any) ([]*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE deleted_at IS NULL`
	args := []any{}

	if provider, ok := criteria["provider"].(string); ok && provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		token, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tokens, nil
}

// scan reads one row into a [models.Token]
func (r *TokenRepository) scan(row scanner) (*models.Token, error) {
	var (
		id           string
		sequence     int
		provider     string
		accessToken  string
		refreshToken sql.NullString
		tokenType    sql.NullString
		expiry       sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &provider, &accessToken, &refreshToken, &tokenType,
		&expiry, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	token := models.NewToken(provider, accessToken, refreshToken.String, tokenType.String, expiry.Time)
	token.SetID(id)
	token.SetSequence(sequence)
	token.SetCreatedAt(createdAt)
	token.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		token.SetDeletedAt(&deletedAt.Time)
	}

	return token, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTokenNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
