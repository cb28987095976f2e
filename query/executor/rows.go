package executor

import (
	"database/sql"

	"github.com/google/uuid"
)

// Rows is a lazy, single-pass sequence of result rows backed by a live
// cursor. It is not restartable. When the executor borrowed the underlying
// connection, Close releases it back to the pool.
type Rows struct {
	id   uuid.UUID
	rows *sql.Rows
	conn *sql.Conn // nil when the handle was caller-supplied
}

// ID identifies the execution that produced this sequence.
func (r *Rows) ID() uuid.UUID { return r.id }

// Next advances the cursor. It returns false at the end of the sequence or
// on error; check Err afterwards.
func (r *Rows) Next() bool { return r.rows.Next() }

// Scan copies the current row into dest, one pointer per column.
func (r *Rows) Scan(dest ...interface{}) error { return r.rows.Scan(dest...) }

// Columns returns the result column names.
func (r *Rows) Columns() ([]string, error) { return r.rows.Columns() }

// Record scans the current row into a column-keyed map. Byte slices are
// converted to strings; everything else keeps the driver's type.
func (r *Rows) Record() (map[string]interface{}, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	record := make(map[string]interface{}, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			record[col] = string(b)
			continue
		}
		record[col] = values[i]
	}
	return record, nil
}

// Err returns the error, if any, that ended iteration.
func (r *Rows) Err() error { return r.rows.Err() }

// Close closes the cursor and releases the borrowed connection, if any. It
// is safe to call more than once.
func (r *Rows) Close() error {
	err := r.rows.Close()
	if r.conn != nil {
		releaseConn(r.conn, false)
		r.conn = nil
	}
	return err
}
