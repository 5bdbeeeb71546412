package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository"
)

var _ repository.BookingRepository = (*BookingRepo)(nil)

const bookingColumns = "id, customer_id, provider_id, service, note, status, scheduled_at, created_at, updated_at"

type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.CustomerID, b.ProviderID, b.Service, b.Note, string(b.Status),
		b.ScheduledAt, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1 OR provider_id = $1
		ORDER BY scheduled_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`, string(status), at, id)
	return err
}

func (r *BookingRepo) CountPending(ctx context.Context, providerID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE provider_id = $1 AND status = 'pending'`, providerID,
	).Scan(&n)
	return n, err
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ProviderID, &b.Service, &b.Note, &status,
		&b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
