package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// Small statement builders producing parameterized SQL with positional
// placeholders. Conditions are written with `?` and rewritten to $N so
// callers never track placeholder numbers themselves.

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	table     string
	cols      []string
	args      []any
	returning string
}

// Insert starts an INSERT into the given table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Set adds a column/value pair.
func (b *InsertBuilder) Set(col string, val any) *InsertBuilder {
	b.cols = append(b.cols, col)
	b.args = append(b.args, val)

	return b
}

// Returning adds a RETURNING clause.
func (b *InsertBuilder) Returning(cols string) *InsertBuilder {
	b.returning = cols

	return b
}

// Build renders the statement and its arguments.
func (b *InsertBuilder) Build() (string, []any) {
	placeholders := make([]string, len(b.cols))
	for i := range b.cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.cols, ", "), strings.Join(placeholders, ", "))

	if b.returning != "" {
		sb.WriteString(" RETURNING " + b.returning)
	}

	return sb.String(), b.args
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	table string
	sets  []string
	conds []string
	args  []any
	n     int
}

// Update starts an UPDATE of the given table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds a column assignment.
func (b *UpdateBuilder) Set(col string, val any) *UpdateBuilder {
	b.n++
	b.sets = append(b.sets, col+" = $"+strconv.Itoa(b.n))
	b.args = append(b.args, val)

	return b
}

// SetExpr adds a raw assignment expression, e.g. "counter = counter + 1".
func (b *UpdateBuilder) SetExpr(expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, b.bind(expr, args))

	return b
}

// Where adds a condition; multiple conditions are joined with AND.
func (b *UpdateBuilder) Where(cond string, args ...any) *UpdateBuilder {
	b.conds = append(b.conds, b.bind(cond, args))

	return b
}

// Build renders the statement and its arguments.
func (b *UpdateBuilder) Build() (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET %s", b.table, strings.Join(b.sets, ", "))

	if len(b.conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.conds, " AND "))
	}

	return sb.String(), b.args
}

func (b *UpdateBuilder) bind(expr string, args []any) string {
	b.args = append(b.args, args...)

	return rewritePlaceholders(expr, &b.n)
}

// SelectBuilder builds a SELECT statement.
type SelectBuilder struct {
	cols      string
	table     string
	conds     []string
	args      []any
	orderBy   string
	limit     int
	offset    int
	hasLimit  bool
	hasOffset bool
	suffix    string
	n         int
}

// Select starts a SELECT of the given columns.
func Select(cols string) *SelectBuilder {
	return &SelectBuilder{cols: cols}
}

// From sets the table.
func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table

	return b
}

// Where adds a condition; multiple conditions are joined with AND.
func (b *SelectBuilder) Where(cond string, args ...any) *SelectBuilder {
	b.args = append(b.args, args...)
	b.conds = append(b.conds, rewritePlaceholders(cond, &b.n))

	return b
}

// OrderBy sets the ORDER BY clause.
func (b *SelectBuilder) OrderBy(expr string) *SelectBuilder {
	b.orderBy = expr

	return b
}

// Limit sets the LIMIT clause.
func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	b.hasLimit = true

	return b
}

// Offset sets the OFFSET clause.
func (b *SelectBuilder) Offset(offset int) *SelectBuilder {
	b.offset = offset
	b.hasOffset = true

	return b
}

// ForUpdate appends FOR UPDATE to the statement.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.suffix = "FOR UPDATE"

	return b
}

// ForUpdateSkipLocked appends FOR UPDATE SKIP LOCKED to the statement.
func (b *SelectBuilder) ForUpdateSkipLocked() *SelectBuilder {
	b.suffix = "FOR UPDATE SKIP LOCKED"

	return b
}

// Build renders the statement and its arguments.
func (b *SelectBuilder) Build() (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", b.cols, b.table)

	if len(b.conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.conds, " AND "))
	}

	if b.orderBy != "" {
		sb.WriteString(" ORDER BY " + b.orderBy)
	}

	if b.hasLimit {
		b.n++
		sb.WriteString(" LIMIT $" + strconv.Itoa(b.n))
		b.args = append(b.args, b.limit)
	}

	if b.hasOffset {
		b.n++
		sb.WriteString(" OFFSET $" + strconv.Itoa(b.n))
		b.args = append(b.args, b.offset)
	}

	if b.suffix != "" {
		sb.WriteString(" " + b.suffix)
	}

	return sb.String(), b.args
}

// rewritePlaceholders replaces each `?` with the next positional placeholder.
func rewritePlaceholders(expr string, n *int) string {
	var sb strings.Builder
	for _, r := range expr {
		if r == '?' {
			*n++
			sb.WriteString("$" + strconv.Itoa(*n))
			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
