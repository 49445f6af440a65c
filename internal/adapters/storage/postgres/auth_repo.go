package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"vet-clinic/internal/domain/auth"
)

// roles se guardan como texto separado por coma (dos roles posibles,
// un array de Postgres sería sobredimensionado)
func joinRoles(roles []auth.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

func splitRoles(s string) []auth.Role {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	roles := make([]auth.Role, 0, len(parts))
	for _, p := range parts {
		roles = append(roles, auth.Role(p))
	}
	return roles
}

type CredentialsRepo struct {
	db *sql.DB
}

func NewCredentialsRepo(db *sql.DB) *CredentialsRepo {
	return &CredentialsRepo{db: db}
}

func (r *CredentialsRepo) Create(ctx context.Context, c auth.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (owner_id, email, password_hash, roles, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		c.OwnerID,
		c.Email,
		c.PasswordHash,
		joinRoles(c.Roles),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *CredentialsRepo) GetByEmail(ctx context.Context, email string) (auth.Credential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT owner_id, email, password_hash, roles, created_at, updated_at
		FROM credentials
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanCredential(row)
}

func (r *CredentialsRepo) GetByOwnerID(ctx context.Context, ownerID string) (auth.Credential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT owner_id, email, password_hash, roles, created_at, updated_at
		FROM credentials
		WHERE owner_id = $1
	`, ownerID)
	return scanCredential(row)
}

func (r *CredentialsRepo) Update(ctx context.Context, c auth.Credential) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET
			email = $2,
			password_hash = $3,
			roles = $4,
			updated_at = $5
		WHERE owner_id = $1
	`,
		c.OwnerID,
		c.Email,
		c.PasswordHash,
		joinRoles(c.Roles),
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CredentialsRepo) Delete(ctx context.Context, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE owner_id = $1`, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCredential(row *sql.Row) (auth.Credential, error) {
	var c auth.Credential
	var roles string
	if err := row.Scan(&c.OwnerID, &c.Email, &c.PasswordHash, &roles, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return auth.Credential{}, ErrNotFound
		}
		return auth.Credential{}, err
	}
	c.Roles = splitRoles(roles)
	return c, nil
}

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) Create(ctx context.Context, s auth.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, owner_id, email, roles, csrf_token, remember, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		s.Token,
		s.OwnerID,
		s.Email,
		joinRoles(s.Roles),
		s.CSRFToken,
		s.Remember,
		s.CreatedAt,
		s.ExpiresAt,
	)
	return err
}

func (r *SessionsRepo) Get(ctx context.Context, token string) (auth.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, owner_id, email, roles, csrf_token, remember, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`, token)

	var s auth.Session
	var roles string
	if err := row.Scan(&s.Token, &s.OwnerID, &s.Email, &roles, &s.CSRFToken, &s.Remember, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return auth.Session{}, ErrNotFound
		}
		return auth.Session{}, err
	}
	s.Roles = splitRoles(roles)
	return s, nil
}

func (r *SessionsRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (r *SessionsRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE owner_id = $1`, ownerID)
	return err
}

func (r *SessionsRepo) SetFlash(ctx context.Context, token string, f auth.Flash) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET flash = $2 WHERE token = $1
	`, token, payload)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TakeFlash lee y limpia en un solo statement; el slot es de una
// sola lectura.
func (r *SessionsRepo) TakeFlash(ctx context.Context, token string) (auth.Flash, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE sessions
		SET flash = NULL
		WHERE token = $1 AND flash IS NOT NULL
		RETURNING flash
	`, token)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return auth.Flash{}, false, nil
		}
		return auth.Flash{}, false, err
	}

	var f auth.Flash
	if err := json.Unmarshal(payload, &f); err != nil {
		return auth.Flash{}, false, err
	}
	return f, true, nil
}

type ResetTokensRepo struct {
	db *sql.DB
}

func NewResetTokensRepo(db *sql.DB) *ResetTokensRepo {
	return &ResetTokensRepo{db: db}
}

func (r *ResetTokensRepo) Create(ctx context.Context, t auth.ResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reset_tokens (token, email, used, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)
	`, t.Token, t.Email, t.Used, t.CreatedAt, t.ExpiresAt)
	return err
}

func (r *ResetTokensRepo) Get(ctx context.Context, token string) (auth.ResetToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, email, used, created_at, expires_at
		FROM reset_tokens
		WHERE token = $1
	`, token)

	var t auth.ResetToken
	if err := row.Scan(&t.Token, &t.Email, &t.Used, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return auth.ResetToken{}, ErrNotFound
		}
		return auth.ResetToken{}, err
	}
	return t, nil
}

func (r *ResetTokensRepo) MarkUsed(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reset_tokens SET used = TRUE WHERE token = $1
	`, token)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
