package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists terminal trust records. Every backend must implement
// BindHardware as a compare-and-set so two concurrent first logins cannot
// both bind different hardware.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id string) (Record, error)
	UpdateLastLogin(ctx context.Context, id string, snap LoginSnapshot) error
	BindHardware(ctx context.Context, id, hardwareID string) error
	SetActive(ctx context.Context, id string, active bool) error
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed terminal repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new terminal.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	permissions := rec.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO terminals
        (id, secret_hash, device_type, bound_hardware_id, business_name,
         latitude, longitude, address, region, permissions, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.SecretHash, string(rec.DeviceType), rec.BoundHardwareID, rec.BusinessName,
		rec.Location.Latitude, rec.Location.Longitude, rec.Location.Address, rec.Location.Region,
		permissions, rec.Active, rec.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert terminal: %w", err)
	}
	return nil
}

// FindByID fetches a terminal by its identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT id, secret_hash, device_type, bound_hardware_id, business_name,
        latitude, longitude, address, region, permissions, is_active, last_login, created_at
        FROM terminals WHERE id = $1`, id)
	var (
		rec        Record
		deviceType string
		lastLogin  []byte
		createdAt  time.Time
	)
	err := row.Scan(&rec.ID, &rec.SecretHash, &deviceType, &rec.BoundHardwareID, &rec.BusinessName,
		&rec.Location.Latitude, &rec.Location.Longitude, &rec.Location.Address, &rec.Location.Region,
		&rec.Permissions, &rec.Active, &lastLogin, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("select terminal: %w", err)
	}
	rec.DeviceType = DeviceType(deviceType)
	rec.CreatedAt = createdAt.UTC()
	if len(lastLogin) > 0 {
		var snap LoginSnapshot
		if err := json.Unmarshal(lastLogin, &snap); err != nil {
			return Record{}, fmt.Errorf("decode last login: %w", err)
		}
		rec.LastLogin = &snap
	}
	return rec, nil
}

// UpdateLastLogin stores the snapshot reported on the latest successful login.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, snap LoginSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode last login: %w", err)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE terminals SET last_login = $1 WHERE id = $2`, payload, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BindHardware locks the terminal to hardwareID if it is unbound. The WHERE
// clause makes the check and the write a single atomic statement.
func (r *PostgresRepository) BindHardware(ctx context.Context, id, hardwareID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE terminals SET bound_hardware_id = $2
        WHERE id = $1 AND (bound_hardware_id = '' OR bound_hardware_id = $2)`, id, hardwareID)
	if err != nil {
		return fmt.Errorf("bind hardware: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM terminals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check terminal: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyBound
}

// SetActive flips the terminal's active flag.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE terminals SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
