package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log view of an error: its chain plus any SQL driver fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	MySQLNumber  uint16 `json:"mysql_number,omitempty"`
	MySQLState   string `json:"mysql_state,omitempty"`
	MySQLMessage string `json:"mysql_message,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	var d ErrorDump
	if err == nil {
		return d
	}
	d.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		d.Code = typed.code
	}
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.fillDriver(err)
	return d
}

// fillDriver copies the first driver error found. MySQL is the primary
// dialect; postgres may surface through pgx (gorm) or lib/pq (sqlx reports).
func (d *ErrorDump) fillDriver(err error) {
	var (
		my  *mysql.MySQLError
		pgx *pgconn.PgError
		pqe *pq.Error
	)
	switch {
	case stderrors.As(err, &my):
		d.MySQLNumber = my.Number
		d.MySQLState = string(my.SQLState[:])
		d.MySQLMessage = my.Message
	case stderrors.As(err, &pgx):
		d.PGCode, d.PGConstraint, d.PGTable = pgx.Code, pgx.ConstraintName, pgx.TableName
		d.PGDetail, d.PGMessage = pgx.Detail, pgx.Message
	case stderrors.As(err, &pqe):
		d.PGCode, d.PGConstraint, d.PGTable = string(pqe.Code), pqe.Constraint, pqe.Table
		d.PGDetail, d.PGMessage = pqe.Detail, pqe.Message
	}
}
