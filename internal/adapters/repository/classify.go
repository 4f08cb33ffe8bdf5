package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// MySQL / TiDB server error numbers.
const (
	mysqlDupEntry        = 1062 // ER_DUP_ENTRY
	mysqlConCount        = 1040 // ER_CON_COUNT_ERROR
	mysqlServerShutdown  = 1053 // ER_SERVER_SHUTDOWN
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlLockDeadlock    = 1213 // ER_LOCK_DEADLOCK
)

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation      = "23505"
	pgConnectionClass      = "08"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgTooManyConnections   = "53300"
	pgAdminShutdown        = "57P01"
)

type classifier func(err error) Kind

func classifyMySQL(err error) Kind {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return KindConflict
		case mysqlConCount, mysqlServerShutdown, mysqlLockWaitTimeout, mysqlLockDeadlock:
			return KindTransient
		}
		return KindFatal
	}
	if errors.Is(err, mysql.ErrInvalidConn) || isConnectivity(err) {
		return KindTransient
	}
	return KindFatal
}

func classifyPostgres(err error) Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return KindConflict
		case strings.HasPrefix(pgErr.Code, pgConnectionClass),
			pgErr.Code == pgSerializationFailure,
			pgErr.Code == pgDeadlockDetected,
			pgErr.Code == pgTooManyConnections,
			pgErr.Code == pgAdminShutdown:
			return KindTransient
		}
		return KindFatal
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) || isConnectivity(err) {
		return KindTransient
	}
	return KindFatal
}

func classifySQLite(err error) Kind {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.ExtendedCode == sqlite3.ErrConstraintUnique, se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return KindConflict
		case se.Code == sqlite3.ErrBusy, se.Code == sqlite3.ErrLocked:
			return KindTransient
		}
		return KindFatal
	}
	if isConnectivity(err) {
		return KindTransient
	}
	return KindFatal
}
