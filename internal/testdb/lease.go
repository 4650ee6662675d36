package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// leaseNamespace keys the advisory locks that guard worker slots ("USER").
const leaseNamespace int32 = 0x55534552

// ErrNoFreeSlot is returned when every worker slot is leased by another process.
var ErrNoFreeSlot = errors.New("no free test database slot")

// Lease holds a worker slot for as long as its session stays open.
type Lease struct {
	conn *sql.Conn
	slot int
}

// AcquireSlot leases the lowest free slot in 1..slots by taking a
// session-level advisory lock on a dedicated connection from db.
func AcquireSlot(ctx context.Context, db *sql.DB, slots int) (*Lease, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lease connection: %w", err)
	}

	for slot := 1; slot <= slots; slot++ {
		var acquired bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1, $2)", leaseNamespace, int32(slot)).Scan(&acquired); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to lock slot %d: %w", slot, err)
		}
		if acquired {
			return &Lease{conn: conn, slot: slot}, nil
		}
	}

	_ = conn.Close()
	return nil, fmt.Errorf("%w (checked %d)", ErrNoFreeSlot, slots)
}

// Slot returns the leased slot number.
func (l *Lease) Slot() int {
	return l.slot
}

// Release unlocks the slot and returns the connection to the pool.
func (l *Lease) Release(ctx context.Context) error {
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1, $2)", leaseNamespace, int32(l.slot))
	return errors.Join(err, l.conn.Close())
}
