// Package filter parses AIP-160 filter expressions over journal events and
// renders them as SQL conditions or in-memory matchers.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// EventDeclarations returns the field declarations for event filtering.
func EventDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("actor_id", filtering.TypeString),
		filtering.DeclareIdent("request_id", filtering.TypeString),
		filtering.DeclareIdent("entity_type", filtering.TypeString),
		filtering.DeclareIdent("entity_id", filtering.TypeString),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "event_type = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Matcher reports whether an event satisfies a parsed filter.
type Matcher func(evt event.Event) bool

// Condition is a parsed event filter. The zero value matches every event.
type Condition struct {
	root *node
}

// Empty reports whether the condition places no constraint.
func (c Condition) Empty() bool {
	return c.root == nil
}

type nodeKind int

const (
	nodeAnd nodeKind = iota
	nodeOr
	nodeCompare
)

type node struct {
	kind     nodeKind
	children []*node
	field    string
	op       string
	// value is a string for text fields and a time.Time for ts.
	value any
}

// columns maps filter field names to journal SQL column names.
var columns = map[string]string{
	"type":        "event_type",
	"actor_id":    "actor_id",
	"request_id":  "request_id",
	"entity_type": "entity_type",
	"entity_id":   "entity_id",
	"ts":          "timestamp",
}

var sqlOperators = map[string]string{
	"_==_": "=",
	"=":    "=",
	"_!=_": "!=",
	"!=":   "!=",
	"_<_":  "<",
	"<":    "<",
	"_<=_": "<=",
	"<=":   "<=",
	"_>_":  ">",
	">":    ">",
	"_>=_": ">=",
	">=":   ">=",
}

// Parse parses an AIP-160 filter expression. An empty string yields an
// empty condition.
func Parse(filterStr string) (Condition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return Condition{}, nil
	}

	decls, err := EventDeclarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("parse filter: %w", err)
	}

	root, err := buildNode(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Condition{}, err
	}
	return Condition{root: root}, nil
}

// ParseEventFilter parses an AIP-160 filter expression and returns a SQL
// condition. Returns an empty condition for an empty filter string.
func ParseEventFilter(filterStr string) (SQLCondition, error) {
	cond, err := Parse(filterStr)
	if err != nil {
		return SQLCondition{}, err
	}
	return cond.SQL(), nil
}

// CompileEventMatcher parses an AIP-160 filter expression into an in-memory
// matcher. An empty filter matches every event.
func CompileEventMatcher(filterStr string) (Matcher, error) {
	cond, err := Parse(filterStr)
	if err != nil {
		return nil, err
	}
	return cond.Match, nil
}

// SQL renders the condition as a WHERE fragment. Timestamps are rendered as
// Unix milliseconds to match the journal's timestamp column.
func (c Condition) SQL() SQLCondition {
	if c.root == nil {
		return SQLCondition{}
	}
	return c.root.sql()
}

// Match evaluates the condition against evt.
func (c Condition) Match(evt event.Event) bool {
	if c.root == nil {
		return true
	}
	return c.root.match(evt)
}

func (n *node) sql() SQLCondition {
	switch n.kind {
	case nodeAnd, nodeOr:
		joiner := " AND "
		if n.kind == nodeOr {
			joiner = " OR "
		}
		clauses := make([]string, 0, len(n.children))
		var params []any
		for _, child := range n.children {
			cond := child.sql()
			clauses = append(clauses, cond.Clause)
			params = append(params, cond.Params...)
		}
		return SQLCondition{
			Clause: "(" + strings.Join(clauses, joiner) + ")",
			Params: params,
		}
	default:
		value := n.value
		if ts, ok := value.(time.Time); ok {
			value = ts.UTC().UnixMilli()
		}
		return SQLCondition{
			Clause: fmt.Sprintf("%s %s ?", columns[n.field], n.op),
			Params: []any{value},
		}
	}
}

func (n *node) match(evt event.Event) bool {
	switch n.kind {
	case nodeAnd:
		for _, child := range n.children {
			if !child.match(evt) {
				return false
			}
		}
		return true
	case nodeOr:
		for _, child := range n.children {
			if child.match(evt) {
				return true
			}
		}
		return false
	default:
		if n.field == "ts" {
			want, _ := n.value.(time.Time)
			return compareOrdered(evt.Timestamp.UTC().UnixMilli(), want.UTC().UnixMilli(), n.op)
		}
		want, _ := n.value.(string)
		return compareOrdered(fieldValue(evt, n.field), want, n.op)
	}
}

func fieldValue(evt event.Event, field string) string {
	switch field {
	case "type":
		return string(evt.Type)
	case "actor_id":
		return evt.ActorID
	case "request_id":
		return evt.RequestID
	case "entity_type":
		return evt.EntityType
	case "entity_id":
		return evt.EntityID
	default:
		return ""
	}
}

func compareOrdered[T string | int64](got, want T, op string) bool {
	switch op {
	case "=":
		return got == want
	case "!=":
		return got != want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	default:
		return false
	}
}

func buildNode(e *expr.Expr) (*node, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return nil, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}

	switch fn := call.CallExpr.Function; fn {
	case "_&&_", "AND":
		return buildJunction(nodeAnd, call.CallExpr.Args)
	case "_||_", "OR":
		return buildJunction(nodeOr, call.CallExpr.Args)
	default:
		op, ok := sqlOperators[fn]
		if !ok {
			return nil, fmt.Errorf("unsupported function: %s", fn)
		}
		return buildComparison(call.CallExpr.Args, op)
	}
}

func buildJunction(kind nodeKind, args []*expr.Expr) (*node, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("AND/OR requires at least 2 arguments")
	}
	n := &node{kind: kind, children: make([]*node, 0, len(args))}
	for _, arg := range args {
		child, err := buildNode(arg)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func buildComparison(args []*expr.Expr, op string) (*node, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	if _, ok := columns[field]; !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}
	switch value.(type) {
	case time.Time:
		if field != "ts" {
			return nil, fmt.Errorf("field %s does not accept a timestamp", field)
		}
	case string:
		if field == "ts" {
			return nil, fmt.Errorf("field ts requires timestamp(...)")
		}
	default:
		return nil, fmt.Errorf("field %s requires a string value", field)
	}

	return &node{kind: nodeCompare, field: field, op: op, value: value}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		if str, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue); ok {
			return str.StringValue, nil
		}
		return nil, fmt.Errorf("unsupported constant type: %T", kind.ConstExpr.ConstantKind)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	constExpr, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	str, ok := constExpr.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, str.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", str.StringValue)
	}
	return t.UTC(), nil
}
