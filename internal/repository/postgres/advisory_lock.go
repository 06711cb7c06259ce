package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/tzayo/library-management-system/internal/logger"
)

// JobLockKey is the session advisory lock shared by every process that runs
// loan maintenance jobs ("loanjobs" in ASCII).
const JobLockKey int64 = 0x6c6f616e6a6f6273

const unlockTimeout = 5 * time.Second

// AdvisoryLock is a non-blocking PostgreSQL session lock. The lock lives on a
// dedicated pooled connection that is held until release.
type AdvisoryLock struct {
	db  *sql.DB
	key int64
}

func NewAdvisoryLock(db *sql.DB, key int64) *AdvisoryLock {
	return &AdvisoryLock{db: db, key: key}
}

// TryLock reports false without waiting when another session holds the key.
func (l *AdvisoryLock) TryLock(ctx context.Context) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, false, err
	}
	if !acquired {
		conn.Close()
		return nil, false, nil
	}

	release := func() {
		// The job context may already be cancelled by now.
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			logger.WithMethod("AdvisoryLock.release").Warn("Failed to release advisory lock, discarding connection", "key", l.key, "error", err)
			// Closing the session is the only other way to drop the lock.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		conn.Close()
	}
	return release, true, nil
}
