package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyMySQL(t *testing.T) {
	Convey("Given MySQL / TiDB driver errors", t, func() {
		cases := []struct {
			name string
			err  error
			want Kind
		}{
			{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'username'"}, KindConflict},
			{"wrapped duplicate entry", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062}), KindConflict},
			{"too many connections", &mysql.MySQLError{Number: 1040}, KindTransient},
			{"deadlock", &mysql.MySQLError{Number: 1213}, KindTransient},
			{"syntax error", &mysql.MySQLError{Number: 1064}, KindFatal},
			{"invalid connection", mysql.ErrInvalidConn, KindTransient},
			{"bad connection", driver.ErrBadConn, KindTransient},
			{"network error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindTransient},
			{"deadline", context.DeadlineExceeded, KindTransient},
			{"anything else", errors.New("boom"), KindFatal},
		}
		for _, tc := range cases {
			Convey("When the error is "+tc.name, func() {
				So(classifyMySQL(tc.err), ShouldEqual, tc.want)
			})
		}
	})
}

func TestClassifyPostgres(t *testing.T) {
	Convey("Given Postgres driver errors", t, func() {
		cases := []struct {
			name string
			err  error
			want Kind
		}{
			{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, KindConflict},
			{"connection failure class", &pgconn.PgError{Code: "08006"}, KindTransient},
			{"serialization failure", &pgconn.PgError{Code: "40001"}, KindTransient},
			{"too many connections", &pgconn.PgError{Code: "53300"}, KindTransient},
			{"undefined table", &pgconn.PgError{Code: "42P01"}, KindFatal},
			{"cancelled", context.Canceled, KindTransient},
			{"anything else", errors.New("boom"), KindFatal},
		}
		for _, tc := range cases {
			Convey("When the error is "+tc.name, func() {
				So(classifyPostgres(tc.err), ShouldEqual, tc.want)
			})
		}
	})
}

func TestClassifySQLite(t *testing.T) {
	Convey("Given SQLite driver errors", t, func() {
		cases := []struct {
			name string
			err  error
			want Kind
		}{
			{"unique constraint", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, KindConflict},
			{"primary key constraint", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, KindConflict},
			{"not null constraint", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, KindFatal},
			{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, KindTransient},
			{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, KindTransient},
			{"anything else", errors.New("boom"), KindFatal},
		}
		for _, tc := range cases {
			Convey("When the error is "+tc.name, func() {
				So(classifySQLite(tc.err), ShouldEqual, tc.want)
			})
		}
	})
}

func TestKindOf(t *testing.T) {
	Convey("Given classified errors", t, func() {
		cause := errors.New("cause")

		So(KindOf(nil), ShouldEqual, KindNone)
		So(KindOf(classified("insert", KindConflict, cause)), ShouldEqual, KindConflict)
		So(KindOf(classified("list", KindTransient, cause)), ShouldEqual, KindTransient)
		So(KindOf(classified("list", KindFatal, cause)), ShouldEqual, KindFatal)
		So(KindOf(cause), ShouldEqual, KindFatal)

		Convey("Then the cause should remain reachable", func() {
			err := classified("insert", KindConflict, cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "insert: uniqueness conflict: cause")
		})

		Convey("Then kinds should have readable names", func() {
			So(KindConflict.String(), ShouldEqual, "conflict")
			So(KindTransient.String(), ShouldEqual, "transient")
			So(KindFatal.String(), ShouldEqual, "fatal")
			So(KindNone.String(), ShouldEqual, "none")
		})
	})
}
