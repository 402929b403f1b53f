package ha

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"gorm.io/gorm"
)

// lockName seeds the advisory lock id and the fallback lock row so every
// replica of this service contends on the same lock.
const lockName = "baseline-server-migration"

const (
	acquireTimeout = 30 * time.Second
	pollInterval   = time.Second
	staleLockAge   = 5 * time.Minute
)

// MigrationLocker serializes schema migrations across replicas so that
// concurrent AutoMigrate calls never race.
type MigrationLocker interface {
	// WithLock runs fn while holding the migration lock, blocking until
	// the lock is acquired and releasing it when fn returns.
	WithLock(ctx context.Context, fn func() error) error
}

// NewMigrationLocker picks a locking strategy for the database dialect:
// advisory locks on PostgreSQL, a lock table everywhere else. The
// identity names this replica on the fallback lock row; an empty
// identity falls back to the hostname. With a nil db the returned
// locker runs fn unlocked.
func NewMigrationLocker(db *gorm.DB, identity string) MigrationLocker {
	if db == nil {
		return unlocked{}
	}
	if db.Dialector.Name() == "postgres" {
		return &advisoryLocker{
			db:     db,
			lockID: int64(crc32.ChecksumIEEE([]byte(lockName))),
		}
	}
	if identity == "" {
		identity = lockHolder()
	}
	// Create the lock table up front so the first WithLock from any
	// replica does not race table creation.
	_ = db.AutoMigrate(&schemaLockRow{})
	return &tableLocker{db: db, holder: identity}
}

func lockHolder() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}

// unlocked is used when no database is configured.
type unlocked struct{}

func (unlocked) WithLock(_ context.Context, fn func() error) error {
	return fn()
}

// advisoryLocker serializes migrations with a PostgreSQL session-level
// advisory lock.
type advisoryLocker struct {
	db     *gorm.DB
	lockID int64
}

func (l *advisoryLocker) WithLock(ctx context.Context, fn func() error) error {
	if err := l.db.WithContext(ctx).Exec("SELECT pg_advisory_lock(?)", l.lockID).Error; err != nil {
		return fmt.Errorf("acquire migration advisory lock: %w", err)
	}
	defer func() {
		_ = l.db.Exec("SELECT pg_advisory_unlock(?)", l.lockID).Error
	}()
	return fn()
}

// schemaLockRow is the single-row lock table used on databases without
// advisory locks (MySQL, SQLite).
type schemaLockRow struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (schemaLockRow) TableName() string { return "migration_lock" }

// tableLocker acquires the lock by inserting the lock row; the primary key
// rejects a second holder. Rows older than staleLockAge are treated as
// leftovers from a crashed holder and cleared.
type tableLocker struct {
	db     *gorm.DB
	holder string
}

func (l *tableLocker) WithLock(ctx context.Context, fn func() error) error {
	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()
	return fn()
}

func (l *tableLocker) acquire(ctx context.Context) error {
	deadline := time.Now().Add(acquireTimeout)
	for {
		l.db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", lockName, time.Now().Add(-staleLockAge)).
			Delete(&schemaLockRow{})

		row := schemaLockRow{ID: lockName, LockedAt: time.Now(), LockedBy: l.holder}
		result := l.db.WithContext(ctx).Create(&row)
		if result.Error == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("migration lock held past %s: %w", acquireTimeout, result.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (l *tableLocker) release() {
	l.db.Where("id = ?", lockName).Delete(&schemaLockRow{})
}
