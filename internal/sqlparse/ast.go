// Package sqlparse turns SQL text into statement trees for the DDL executor
// and renders those trees back as canonical SQL. The grammar covers the DDL
// subset the engine executes plus enough of SELECT to echo it faithfully.
package sqlparse

// Statement is a parsed SQL statement.
type Statement interface {
	statementNode()
}

// ColumnType is the declared type in a column definition.
type ColumnType int

const (
	ColumnUnknown ColumnType = iota
	ColumnInt
	ColumnText
	ColumnDouble
)

// ColumnDefinition is one "name TYPE" entry of a CREATE TABLE.
type ColumnDefinition struct {
	Name string
	Type ColumnType
}

// CreateKind distinguishes CREATE TABLE from CREATE INDEX.
type CreateKind int

const (
	CreateTable CreateKind = iota
	CreateIndex
)

// CreateStatement is a parsed CREATE TABLE or CREATE INDEX.
type CreateStatement struct {
	Kind        CreateKind
	Table       string
	IfNotExists bool

	// CREATE TABLE fields.
	Columns []ColumnDefinition

	// CREATE INDEX fields.
	Index        string
	IndexColumns []string
	IndexType    string // "BTREE" or "HASH"; BTREE when USING is absent
}

func (*CreateStatement) statementNode() {}

// DropKind distinguishes DROP TABLE from DROP INDEX.
type DropKind int

const (
	DropTable DropKind = iota
	DropIndex
)

// DropStatement is a parsed DROP TABLE t or DROP INDEX i FROM t.
type DropStatement struct {
	Kind  DropKind
	Table string
	Index string
}

func (*DropStatement) statementNode() {}

// ShowKind selects the SHOW variant.
type ShowKind int

const (
	ShowTables ShowKind = iota
	ShowColumns
	ShowIndex
)

// ShowStatement is a parsed SHOW TABLES / SHOW COLUMNS FROM t /
// SHOW INDEX FROM t.
type ShowStatement struct {
	Kind  ShowKind
	Table string
}

func (*ShowStatement) statementNode() {}

// SelectStatement is a parsed SELECT. The engine does not execute it; it
// exists so the shell can echo the canonical form.
type SelectStatement struct {
	List  []*Expr
	From  *TableRef
	Where *Expr
}

func (*SelectStatement) statementNode() {}

// ExprKind tags an expression node.
type ExprKind int

const (
	ExprStar ExprKind = iota
	ExprColumnRef
	ExprLiteralInt
	ExprLiteralFloat
	ExprLiteralString
	ExprFunctionRef
	ExprOperator
)

// OpKind tags an operator expression.
type OpKind int

const (
	OpSimple OpKind = iota // single comparison char in OpChar
	OpAnd
	OpOr
	OpNot
)

// Expr is one expression node. Which fields are meaningful depends on Kind:
// column refs use Table and Name, literals use Name/Ival/Fval, function refs
// use Name and Expr, operators use Op, OpChar, Expr, and Expr2.
type Expr struct {
	Kind   ExprKind
	Table  string
	Name   string
	Ival   int64
	Fval   float64
	Op     OpKind
	OpChar byte
	Expr   *Expr
	Expr2  *Expr
	Alias  string
}

// TableRefKind tags a FROM clause element.
type TableRefKind int

const (
	TableName TableRefKind = iota
	TableJoin
	TableCrossProduct
)

// TableRef is one element of a FROM clause.
type TableRef struct {
	Kind  TableRefKind
	Name  string
	Alias string
	Join  *JoinDefinition
	List  []*TableRef
}

// JoinKind tags a join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinNatural
	JoinCross
)

// JoinDefinition is the two sides and condition of a join.
type JoinDefinition struct {
	Left      *TableRef
	Right     *TableRef
	Kind      JoinKind
	Condition *Expr
}
