// Package sqldb holds the SQL repositories shared by the sqlite and postgres
// drivers. Queries are written with ? placeholders and rebound per dialect.
package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/store"
)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	Name string

	// NumberedParams rewrites ? into $1, $2, ...
	NumberedParams bool

	// TextTimes stores timestamps as fixed width UTC text, which keeps
	// comparisons in SQL correct on engines without a timestamp type.
	TextTimes bool

	// IsUniqueViolation recognises the driver's unique constraint error.
	IsUniqueViolation func(error) bool
}

// TextTimeLayout is the fixed width layout used when TextTimes is set.
const TextTimeLayout = "2006-01-02T15:04:05.000000000Z"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries binds a DBTX to a dialect. Every repo is a thin wrapper over it.
type queries struct {
	db DBTX
	d  Dialect
}

func (q *queries) rebind(query string) string {
	if !q.d.NumberedParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// ts encodes a timestamp for the dialect, always in UTC.
func (q *queries) ts(t time.Time) any {
	if q.d.TextTimes {
		return t.UTC().Format(TextTimeLayout)
	}
	return t.UTC()
}

func (q *queries) nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return q.ts(*t)
}

// uniqueErr maps unique violations onto the store error.
func (q *queries) uniqueErr(err error) error {
	if err != nil && q.d.IsUniqueViolation != nil && q.d.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	}
	return err
}

// timeCol scans either a native timestamp or the text form into a time.
type timeCol struct{ t *time.Time }

func (c timeCol) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.t = v.UTC()
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("sqldb: cannot scan %T into time", src)
	}
}

func (c timeCol) parse(s string) error {
	t, err := time.Parse(TextTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("sqldb: parse time %q: %w", s, err)
		}
	}
	*c.t = t.UTC()
	return nil
}

// nullTimeCol is timeCol for nullable columns.
type nullTimeCol struct{ t **time.Time }

func (c nullTimeCol) Scan(src any) error {
	if src == nil {
		*c.t = nil
		return nil
	}
	var t time.Time
	if err := (timeCol{&t}).Scan(src); err != nil {
		return err
	}
	*c.t = &t
	return nil
}

var (
	_ sql.Scanner = timeCol{}
	_ sql.Scanner = nullTimeCol{}
)

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// boolCol scans booleans stored either natively or as 0/1 integers.
type boolCol struct{ b *bool }

func (c boolCol) Scan(src any) error {
	v, err := driver.Bool.ConvertValue(src)
	if err != nil {
		return fmt.Errorf("sqldb: scan bool: %w", err)
	}
	*c.b = v.(bool)
	return nil
}
