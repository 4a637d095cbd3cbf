package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Records are stored as JSON documents in a (id, body) table; predicates
// address fields with json_extract.
//
// CRITICAL: ALL queries include ORDER BY id so results keep insertion order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// EqualFold predicates and decimal comparisons compile to a type check only:
// SQLite has no Unicode case folding and compares decimals as floating point.
// Callers must re-apply the predicate with queryir.Filter.
// The SQL result is a superset of the matching records, never a subset.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select requires a table")
	}
	if err := queryir.Validate(q.Filter); err != nil {
		return "", nil, fmt.Errorf("invalid filter: %w", err)
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT id, body FROM %s%s ORDER BY id ASC", q.From, whereClause)
	return sql, params, nil
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.EqualFold:
		return c.compileEqualFold(pred)
	case *queryir.EqualFold:
		return c.compileEqualFold(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate. The json_type guard keeps
// type-aware equality: a JSON string "1" never matches an integer 1.
// Decimals compile to a numeric type check only; see Compile.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	path := jsonPath(eq.Field)
	if _, ok := eq.Value.(ir.IRNumber); ok {
		return fmt.Sprintf("json_type(body, '%s') IN ('integer', 'real')", path), nil, nil
	}

	param, jsonType, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}

	sql := fmt.Sprintf("(json_type(body, '%s') = '%s' AND json_extract(body, '%s') = ?)", path, jsonType, path)
	return sql, []any{param}, nil
}

// compileEqualFold only checks the field is a string; see Compile.
func (c *SQLCompiler) compileEqualFold(eq queryir.EqualFold) (string, []any, error) {
	return fmt.Sprintf("json_type(body, '%s') = 'text'", jsonPath(eq.Field)), nil, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// jsonPath builds a JSON path for a field already checked by queryir.Validate.
func jsonPath(field string) string {
	return "$." + field
}

// irValueToParam converts an ir.IRValue to a Go native SQL parameter and the
// json_type SQLite reports for a matching stored value.
func irValueToParam(v ir.IRValue) (any, string, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), "text", nil
	case ir.IRInt:
		return int64(val), "integer", nil
	case ir.IRBool:
		if val {
			return int64(1), "true", nil
		}
		return int64(0), "false", nil
	default:
		return nil, "", fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
