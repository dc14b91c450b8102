package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
)

const (
	defaultQueryTimeout = 5 * time.Second
	uniqueViolation     = "23505"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CredentialStore persists users and their role assignments in PostgreSQL.
type CredentialStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewCredentialStore returns a store whose operations are each bounded by
// timeout. A non-positive timeout selects defaultQueryTimeout.
func NewCredentialStore(db *sql.DB, timeout time.Duration) *CredentialStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &CredentialStore{db: db, timeout: timeout}
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// FindByEmail looks up a user by its normalized email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `SELECT id, nombre, email, password, created_at FROM usuarios WHERE email = $1`
	var u domain.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(ctx, "find user", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Create inserts the user and its default role assignment in one transaction.
func (s *CredentialStore) Create(ctx context.Context, name, email, passwordHash string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", classify(ctx, "begin create user", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	const insertUser = `INSERT INTO usuarios (id, nombre, email, password) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insertUser, id, name, email, passwordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", domain.ErrEmailTaken
		}
		return "", classify(ctx, "insert user", err)
	}

	if err := assignRole(ctx, tx, id, domain.DefaultRole); err != nil {
		return "", classify(ctx, "assign default role", err)
	}

	if err := tx.Commit(); err != nil {
		return "", classify(ctx, "commit create user", err)
	}
	return id, nil
}

// AssignDefaultRole links userID to the default role. Existing links are left
// untouched.
func (s *CredentialStore) AssignDefaultRole(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := assignRole(ctx, s.db, userID, domain.DefaultRole); err != nil {
		return classify(ctx, "assign default role", err)
	}
	return nil
}

// GetRoles returns the role names of userID ordered by name.
func (s *CredentialStore) GetRoles(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `SELECT r.nombre
		FROM roles r
		INNER JOIN usuarios_roles ur ON ur.rol_id = r.id
		WHERE ur.usuario_id = $1
		ORDER BY r.nombre`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(ctx, "list roles", err)
	}
	defer rows.Close()

	roles := make([]string, 0, 1)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(ctx, "scan role", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "list roles", err)
	}
	return roles, nil
}

// Ping checks that the pool can reach the database.
func (s *CredentialStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return classify(ctx, "ping", err)
	}
	return nil
}

var errRoleMissing = errors.New("role is not seeded")

func assignRole(ctx context.Context, q querier, userID, role string) error {
	var roleID int64
	err := q.QueryRowContext(ctx, `SELECT id FROM roles WHERE nombre = $1`, role).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", errRoleMissing, role)
		}
		return err
	}

	const link = `INSERT INTO usuarios_roles (usuario_id, rol_id) VALUES ($1, $2)
		ON CONFLICT (usuario_id, rol_id) DO NOTHING`
	_, err = q.ExecContext(ctx, link, userID, roleID)
	return err
}

// classify wraps err with op and marks connectivity problems as
// domain.ErrStoreUnavailable. A request the caller cancelled keeps
// context.Canceled in its chain instead.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w: %w", op, context.Canceled, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if isUnavailable(ctx, err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) || pgconn.Timeout(err)
}
