package attempt

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgLockNotAvailable   = "55P03"
	mysqlLockWaitTimeout = 1205
)

// applyLockTimeout bounds how long tx waits on row locks. On postgres the
// limit is transaction-local. MySQL only has a session variable, so the
// returned restore puts the previous value back before the pooled
// connection is reused; call it before tx ends. SQLite has no row locks
// and is left alone.
func applyLockTimeout(tx *gorm.DB, ms int) (restore func(), err error) {
	noop := func() {}
	if ms <= 0 {
		return noop, nil
	}
	switch tx.Dialector.Name() {
	case "postgres":
		return noop, tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)).Error
	case "mysql":
		var previous int
		if err := tx.Raw("SELECT @@SESSION.innodb_lock_wait_timeout").Scan(&previous).Error; err != nil {
			return noop, err
		}
		if err := tx.Exec("SET SESSION innodb_lock_wait_timeout = ?", max(1, ms/1000)).Error; err != nil {
			return noop, err
		}
		return func() {
			if err := tx.Exec("SET SESSION innodb_lock_wait_timeout = ?", previous).Error; err != nil {
				log.Printf("[ATTEMPT] restore innodb_lock_wait_timeout=%d: %v", previous, err)
			}
		}, nil
	}
	return noop, nil
}

// classifyLockError turns driver lock-wait failures into ErrLockTimeout.
func classifyLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlLockWaitTimeout {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	return err
}
