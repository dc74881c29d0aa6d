// Package persistence implements the local booking snapshot cache. The
// client keeps the last known state of every booking so screens render
// instantly while the backend is re-fetched.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
)

// SQLiteBookingRepository implements domain.Repository using SQLite.
type SQLiteBookingRepository struct {
	dbConn *sql.DB
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(dbConn *sql.DB) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{dbConn: dbConn}
}

// InitSQLiteSchema creates the cache tables if they do not exist.
func InitSQLiteSchema(ctx context.Context, dbConn *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			service_name TEXT NOT NULL,
			scheduled_at TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			provider_id TEXT,
			provider_name TEXT,
			provider_phone TEXT,
			provider_avatar_url TEXT,
			reviewed INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id);

		CREATE TABLE IF NOT EXISTS booking_status_history (
			booking_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			status TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			PRIMARY KEY (booking_id, position)
		);
	`
	_, err := dbConn.ExecContext(ctx, schema)
	return err
}

// Save persists a booking and its full status history.
func (r *SQLiteBookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var provider domain.Provider
	var providerID string
	if p := booking.Provider(); !p.IsZero() {
		provider = p
		providerID = p.ID.String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, customer_id, service_name, scheduled_at, total_amount,
			payment_status, provider_id, provider_name, provider_phone,
			provider_avatar_url, reviewed, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			service_name = excluded.service_name,
			scheduled_at = excluded.scheduled_at,
			total_amount = excluded.total_amount,
			payment_status = excluded.payment_status,
			provider_id = excluded.provider_id,
			provider_name = excluded.provider_name,
			provider_phone = excluded.provider_phone,
			provider_avatar_url = excluded.provider_avatar_url,
			reviewed = excluded.reviewed,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		booking.ID().String(),
		booking.CustomerID().String(),
		booking.ServiceName(),
		booking.ScheduledAt().UTC().Format(time.RFC3339Nano),
		booking.TotalAmount().String(),
		string(booking.PaymentStatus()),
		toNullString(providerID),
		toNullString(provider.Name),
		toNullString(provider.Phone),
		toNullString(provider.AvatarURL),
		boolToInt64(booking.IsReviewed()),
		booking.Version(),
		booking.CreatedAt().UTC().Format(time.RFC3339Nano),
		booking.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	// History is append-only but the cache may be behind by several entries,
	// so replace it wholesale with the aggregate's copy.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM booking_status_history WHERE booking_id = ?`,
		booking.ID().String(),
	); err != nil {
		return err
	}
	for i, rec := range booking.StatusHistory() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO booking_status_history (booking_id, position, status, occurred_at)
			VALUES (?, ?, ?, ?)
		`,
			booking.ID().String(),
			i,
			rec.Status.String(),
			rec.OccurredAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindByID retrieves a booking by its id.
func (r *SQLiteBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.dbConn.QueryRowContext(ctx, `
		SELECT id, customer_id, service_name, scheduled_at, total_amount,
		       payment_status, provider_id, provider_name, provider_phone,
		       provider_avatar_url, reviewed, version, created_at, updated_at
		FROM bookings WHERE id = ?
	`, id.String())

	booking, err := r.scanBooking(ctx, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// FindByCustomer retrieves all bookings for a customer, newest first.
func (r *SQLiteBookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	rows, err := r.dbConn.QueryContext(ctx, `
		SELECT id, customer_id, service_name, scheduled_at, total_amount,
		       payment_status, provider_id, provider_name, provider_phone,
		       provider_avatar_url, reviewed, version, created_at, updated_at
		FROM bookings WHERE customer_id = ?
		ORDER BY scheduled_at DESC
	`, customerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := r.scanBooking(ctx, rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteBookingRepository) scanBooking(ctx context.Context, row rowScanner) (*domain.Booking, error) {
	var (
		idStr, customerStr, serviceName     string
		scheduledStr, amountStr, paymentStr string
		providerID, name, phone, avatar     sql.NullString
		reviewed, version                   int64
		createdStr, updatedStr              string
	)
	if err := row.Scan(
		&idStr, &customerStr, &serviceName, &scheduledStr, &amountStr,
		&paymentStr, &providerID, &name, &phone, &avatar,
		&reviewed, &version, &createdStr, &updatedStr,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	customerID, err := uuid.Parse(customerStr)
	if err != nil {
		return nil, err
	}
	scheduledAt, err := time.Parse(time.RFC3339Nano, scheduledStr)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, err
	}

	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	var provider domain.Provider
	if providerID.Valid && providerID.String != "" {
		pid, err := uuid.Parse(providerID.String)
		if err != nil {
			return nil, err
		}
		provider = domain.Provider{
			ID:        pid,
			Name:      fromNullString(name),
			Phone:     fromNullString(phone),
			AvatarURL: fromNullString(avatar),
		}
	}

	return domain.RehydrateBooking(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		int(version),
		customerID,
		serviceName,
		history,
		scheduledAt,
		amount,
		domain.PaymentStatus(paymentStr),
		provider,
		reviewed != 0,
	), nil
}

func (r *SQLiteBookingRepository) loadHistory(ctx context.Context, bookingID uuid.UUID) ([]domain.StatusRecord, error) {
	rows, err := r.dbConn.QueryContext(ctx, `
		SELECT status, occurred_at FROM booking_status_history
		WHERE booking_id = ? ORDER BY position
	`, bookingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.StatusRecord
	for rows.Next() {
		var statusStr, occurredStr string
		if err := rows.Scan(&statusStr, &occurredStr); err != nil {
			return nil, err
		}
		status, err := domain.ParseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		occurredAt, err := time.Parse(time.RFC3339Nano, occurredStr)
		if err != nil {
			return nil, err
		}
		history = append(history, domain.StatusRecord{Status: status, OccurredAt: occurredAt})
	}
	return history, rows.Err()
}

// Helper functions
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
