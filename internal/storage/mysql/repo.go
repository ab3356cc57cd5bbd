package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"hotel_occupancy/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var roomNumber sql.NullString
	var status string
	if err := row.Scan(
		&b.ID,
		&b.GuestID,
		&b.RoomType,
		&roomNumber,
		&b.CheckIn,
		&b.CheckOut,
		&status,
		&b.RatePerNight,
		&b.CreatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	if roomNumber.Valid {
		b.RoomNumber = roomNumber.String
	}
	b.Status = domain.Status(status)
	b.CheckIn, b.CheckOut = domain.DateOf(b.CheckIn), domain.DateOf(b.CheckOut)
	return b, nil
}

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo { return &Repo{db: db, now: time.Now} }

// SyncInventory writes the configured inventory so every room type has a lock row.
func (r *Repo) SyncInventory(ctx context.Context, inv domain.Inventory) error {
	for _, rt := range inv.RoomTypes() {
		c := inv[rt]
		if _, err := r.db.ExecContext(ctx, upsertInventorySQL, rt, c.Rooms, c.BaseRate); err != nil {
			return fmt.Errorf("sync inventory %s: %w", rt, err)
		}
	}
	return nil
}

// InsertBooking locks the room type, hands the overlapping active bookings to
// guard, and inserts only if guard accepts. Concurrent writers for the same
// room type queue on the lock row, so none of them can miss another's insert.
func (r *Repo) InsertBooking(ctx context.Context, b domain.Booking, guard domain.InsertGuard) (domain.Booking, error) {
	if err := b.Validate(); err != nil {
		return domain.Booking{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC().Truncate(time.Millisecond)
	}

	err := r.withRoomTypeLock(ctx, b.RoomType, func(tx *sql.Tx) error {
		if guard != nil {
			existing, err := overlapping(ctx, tx, b)
			if err != nil {
				return err
			}
			if err := guard(existing, b); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, insertBookingSQL,
			b.ID,
			b.GuestID,
			b.RoomType,
			valStr(b.RoomNumber),
			b.CheckIn,
			b.CheckOut,
			string(b.Status),
			b.RatePerNight,
			b.CreatedAt,
		)
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidBooking, b.ID)
		}
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

const errDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// UpdateBookingStatus takes the room-type lock like InsertBooking; a booking
// that starts holding a room is handed to guard first.
func (r *Repo) UpdateBookingStatus(ctx context.Context, id string, to domain.Status, guard domain.InsertGuard) (domain.Booking, error) {
	cur, err := r.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	err = r.withRoomTypeLock(ctx, cur.RoomType, func(tx *sql.Tx) error {
		b, err := scanBooking(tx.QueryRowContext(ctx, getBookingForUpdateSQL, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := domain.Transition(b.Status, to); err != nil {
			return err
		}
		from := b.Status
		b.Status = to
		if guard != nil && !from.Occupying() && to.Occupying() {
			existing, err := overlapping(ctx, tx, b)
			if err != nil {
				return err
			}
			if err := guard(existing, b); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, updateBookingStatusSQL, string(to), id); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *Repo) AmendBookingDates(ctx context.Context, id string, stay domain.DateRange, guard domain.InsertGuard) (domain.Booking, error) {
	cur, err := r.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	err = r.withRoomTypeLock(ctx, cur.RoomType, func(tx *sql.Tx) error {
		// re-read under the lock; status may have moved since
		b, err := scanBooking(tx.QueryRowContext(ctx, getBookingForUpdateSQL, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if b.Status.Terminal() {
			return fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidBooking, id, b.Status)
		}
		b.CheckIn, b.CheckOut = domain.DateOf(stay.Start), domain.DateOf(stay.End)
		if err := b.Validate(); err != nil {
			return err
		}
		if guard != nil {
			existing, err := overlapping(ctx, tx, b)
			if err != nil {
				return err
			}
			if err := guard(existing, b); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, updateBookingDatesSQL, b.CheckIn, b.CheckOut, id); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *Repo) UpsertBookings(ctx context.Context, bs []domain.Booking) error {
	if len(bs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertBookingSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := r.now().UTC().Truncate(time.Millisecond)
	for _, b := range bs {
		created := b.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx,
			b.ID,
			b.GuestID,
			b.RoomType,
			valStr(b.RoomNumber),
			b.CheckIn,
			b.CheckOut,
			string(b.Status),
			b.RatePerNight,
			created,
		); err != nil {
			return fmt.Errorf("upsert booking %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *Repo) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var where []string
	var args []any
	if f.RoomType != nil {
		where = append(where, "room_type = ?")
		args = append(args, *f.RoomType)
	}
	if f.Range != nil {
		where = append(where, "check_in < ? AND check_out > ?")
		args = append(args, domain.DateOf(f.Range.End), domain.DateOf(f.Range.Start))
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			ph[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(ph, ",")+")")
	}

	q := "SELECT " + bookingColumns + " FROM bookings"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY check_in, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UpsertOrders(ctx context.Context, os []domain.Order) error {
	for _, o := range os {
		if _, err := r.db.ExecContext(ctx, upsertOrderSQL, o.Kind, o.ID, domain.DateOf(o.Date), o.Amount, o.Status); err != nil {
			return fmt.Errorf("upsert order %s/%s: %w", o.Kind, o.ID, err)
		}
	}
	return nil
}

func (r *Repo) ListOrders(ctx context.Context, rg domain.DateRange) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersSQL, domain.DateOf(rg.Start), domain.DateOf(rg.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.Kind, &o.ID, &o.Date, &o.Amount, &o.Status); err != nil {
			return nil, err
		}
		o.Date = domain.DateOf(o.Date)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) LogReject(ctx context.Context, resource, sourceID, reason string) error {
	reason = truncateRunes(reason, maxReasonLen)
	_, err := r.db.ExecContext(ctx, insertRejectSQL, resource, sourceID, reason)
	return err
}

// import_rejects.reason is VARCHAR(255) under utf8mb4, counted in characters.
const maxReasonLen = 255

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (r *Repo) withRoomTypeLock(ctx context.Context, roomType string, fn func(tx *sql.Tx) error) error {
	// outside the transaction: concurrent first inserts of the same key would
	// otherwise deadlock on InnoDB's insert-intention locks
	if _, err := r.db.ExecContext(ctx, ensureRoomTypeSQL, roomType); err != nil {
		return fmt.Errorf("ensure room type %s: %w", roomType, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var locked string
	if err := tx.QueryRowContext(ctx, lockRoomTypeSQL, roomType).Scan(&locked); err != nil {
		return fmt.Errorf("lock room type %s: %w", roomType, err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func overlapping(ctx context.Context, tx *sql.Tx, c domain.Booking) ([]domain.Booking, error) {
	rows, err := tx.QueryContext(ctx, overlappingBookingsSQL, c.RoomType, c.CheckOut, c.CheckIn, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
