package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
)

// PostgresBookingRepository implements domain.Repository using PostgreSQL.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository.
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// Save persists a booking and its full status history.
func (r *PostgresBookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bookings (
			id, customer_id, service_name, scheduled_at, total_amount,
			payment_status, provider_id, provider_name, provider_phone,
			provider_avatar_url, reviewed, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			service_name = EXCLUDED.service_name,
			scheduled_at = EXCLUDED.scheduled_at,
			total_amount = EXCLUDED.total_amount,
			payment_status = EXCLUDED.payment_status,
			provider_id = EXCLUDED.provider_id,
			provider_name = EXCLUDED.provider_name,
			provider_phone = EXCLUDED.provider_phone,
			provider_avatar_url = EXCLUDED.provider_avatar_url,
			reviewed = EXCLUDED.reviewed,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	var providerID *uuid.UUID
	provider := booking.Provider()
	if !provider.IsZero() {
		id := provider.ID
		providerID = &id
	}

	_, err = tx.Exec(ctx, query,
		booking.ID(),
		booking.CustomerID(),
		booking.ServiceName(),
		booking.ScheduledAt(),
		booking.TotalAmount(),
		string(booking.PaymentStatus()),
		providerID,
		provider.Name,
		provider.Phone,
		provider.AvatarURL,
		booking.IsReviewed(),
		booking.Version(),
		booking.CreatedAt(),
		booking.UpdatedAt(),
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM booking_status_history WHERE booking_id = $1`,
		booking.ID(),
	); err != nil {
		return err
	}

	historyQuery := `
		INSERT INTO booking_status_history (booking_id, position, status, occurred_at)
		VALUES ($1, $2, $3, $4)
	`
	for i, rec := range booking.StatusHistory() {
		if _, err := tx.Exec(ctx, historyQuery,
			booking.ID(), i, rec.Status.String(), rec.OccurredAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindByID retrieves a booking by its id.
func (r *PostgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, service_name, scheduled_at, total_amount,
		       payment_status, provider_id, provider_name, provider_phone,
		       provider_avatar_url, reviewed, version, created_at, updated_at
		FROM bookings WHERE id = $1
	`, id)

	booking, err := r.scanRow(ctx, row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// FindByCustomer retrieves all bookings for a customer, newest first.
func (r *PostgresBookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, service_name, scheduled_at, total_amount,
		       payment_status, provider_id, provider_name, provider_phone,
		       provider_avatar_url, reviewed, version, created_at, updated_at
		FROM bookings WHERE customer_id = $1
		ORDER BY scheduled_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := r.scanRow(ctx, rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *PostgresBookingRepository) scanRow(ctx context.Context, row pgx.Row) (*domain.Booking, error) {
	var pr bookingRow
	if err := row.Scan(
		&pr.ID, &pr.CustomerID, &pr.ServiceName, &pr.ScheduledAt, &pr.TotalAmount,
		&pr.PaymentStatus, &pr.ProviderID, &pr.ProviderName, &pr.ProviderPhone,
		&pr.ProviderAvatarURL, &pr.Reviewed, &pr.Version, &pr.CreatedAt, &pr.UpdatedAt,
	); err != nil {
		return nil, err
	}

	history, err := r.loadHistory(ctx, pr.ID)
	if err != nil {
		return nil, err
	}

	var provider domain.Provider
	if pr.ProviderID != nil {
		provider = domain.Provider{
			ID:        *pr.ProviderID,
			Name:      pr.ProviderName,
			Phone:     pr.ProviderPhone,
			AvatarURL: pr.ProviderAvatarURL,
		}
	}

	return domain.RehydrateBooking(
		sharedDomain.RehydrateBaseEntity(pr.ID, pr.CreatedAt, pr.UpdatedAt),
		pr.Version,
		pr.CustomerID,
		pr.ServiceName,
		history,
		pr.ScheduledAt,
		pr.TotalAmount,
		domain.PaymentStatus(pr.PaymentStatus),
		provider,
		pr.Reviewed,
	), nil
}

func (r *PostgresBookingRepository) loadHistory(ctx context.Context, bookingID uuid.UUID) ([]domain.StatusRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, occurred_at FROM booking_status_history
		WHERE booking_id = $1 ORDER BY position
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.StatusRecord
	for rows.Next() {
		var statusStr string
		var occurredAt time.Time
		if err := rows.Scan(&statusStr, &occurredAt); err != nil {
			return nil, err
		}
		status, err := domain.ParseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		history = append(history, domain.StatusRecord{Status: status, OccurredAt: occurredAt})
	}
	return history, rows.Err()
}

// bookingRow represents a database row for bookings.
type bookingRow struct {
	ID                uuid.UUID
	CustomerID        uuid.UUID
	ServiceName       string
	ScheduledAt       time.Time
	TotalAmount       decimal.Decimal
	PaymentStatus     string
	ProviderID        *uuid.UUID
	ProviderName      string
	ProviderPhone     string
	ProviderAvatarURL string
	Reviewed          bool
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
