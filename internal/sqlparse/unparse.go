package sqlparse

import (
	"strconv"
	"strings"
)

// Unparse renders a statement tree back as canonical SQL text. The output is
// for display only; unknown nodes render as "???".
func Unparse(stmt Statement) string {
	switch s := stmt.(type) {
	case *SelectStatement:
		return unparseSelect(s)
	case *CreateStatement:
		return unparseCreate(s)
	case *DropStatement:
		return unparseDrop(s)
	case *ShowStatement:
		return unparseShow(s)
	default:
		return "???"
	}
}

func unparseSelect(stmt *SelectStatement) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, expr := range stmt.List {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(unparseExpr(expr))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(unparseTableRef(stmt.From))
	if stmt.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(unparseExpr(stmt.Where))
	}
	return sb.String()
}

func unparseCreate(stmt *CreateStatement) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	switch stmt.Kind {
	case CreateTable:
		sb.WriteString("TABLE ")
		if stmt.IfNotExists {
			sb.WriteString("IF NOT EXISTS ")
		}
		sb.WriteString(stmt.Table)
		sb.WriteString(" (")
		for i, col := range stmt.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(unparseColumnDefinition(col))
		}
		sb.WriteString(")")
	case CreateIndex:
		sb.WriteString("INDEX ")
		sb.WriteString(stmt.Index)
		sb.WriteString(" ON ")
		sb.WriteString(stmt.Table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(stmt.IndexColumns, ", "))
		sb.WriteString(")")
		sb.WriteString(" USING ")
		sb.WriteString(stmt.IndexType)
	default:
		sb.WriteString("???")
	}
	return sb.String()
}

func unparseColumnDefinition(col ColumnDefinition) string {
	switch col.Type {
	case ColumnInt:
		return col.Name + " INT"
	case ColumnText:
		return col.Name + " TEXT"
	case ColumnDouble:
		return col.Name + " DOUBLE"
	default:
		return col.Name + " ..."
	}
}

func unparseDrop(stmt *DropStatement) string {
	switch stmt.Kind {
	case DropTable:
		return "DROP TABLE " + stmt.Table
	case DropIndex:
		return "DROP INDEX " + stmt.Index + " FROM " + stmt.Table
	default:
		return "DROP ???"
	}
}

func unparseShow(stmt *ShowStatement) string {
	switch stmt.Kind {
	case ShowTables:
		return "SHOW TABLES"
	case ShowColumns:
		return "SHOW COLUMNS FROM " + stmt.Table
	case ShowIndex:
		return "SHOW INDEX FROM " + stmt.Table
	default:
		return "SHOW ???"
	}
}

func unparseTableRef(ref *TableRef) string {
	if ref == nil {
		return "???"
	}
	switch ref.Kind {
	case TableName:
		if ref.Alias != "" {
			return ref.Name + " AS " + ref.Alias
		}
		return ref.Name
	case TableJoin:
		return unparseJoin(ref.Join)
	case TableCrossProduct:
		parts := make([]string, len(ref.List))
		for i, r := range ref.List {
			parts[i] = unparseTableRef(r)
		}
		return strings.Join(parts, ", ")
	default:
		return "???"
	}
}

func unparseJoin(join *JoinDefinition) string {
	var sb strings.Builder
	sb.WriteString(unparseTableRef(join.Left))
	switch join.Kind {
	case JoinInner:
		sb.WriteString(" JOIN ")
	case JoinLeft:
		sb.WriteString(" LEFT JOIN ")
	case JoinRight:
		sb.WriteString(" RIGHT JOIN ")
	case JoinNatural:
		sb.WriteString(" NATURAL JOIN ")
	case JoinCross:
		sb.WriteString(" CROSS JOIN ")
	default:
		sb.WriteString(" ??? ")
	}
	sb.WriteString(unparseTableRef(join.Right))
	if join.Condition != nil {
		sb.WriteString(" ON ")
		sb.WriteString(unparseExpr(join.Condition))
	}
	return sb.String()
}

func unparseExpr(expr *Expr) string {
	if expr == nil {
		return "null"
	}
	var ret string
	switch expr.Kind {
	case ExprStar:
		ret = "*"
	case ExprColumnRef:
		if expr.Table != "" {
			ret = expr.Table + "." + expr.Name
		} else {
			ret = expr.Name
		}
	case ExprLiteralString:
		ret = expr.Name
	case ExprLiteralInt:
		ret = strconv.FormatInt(expr.Ival, 10)
	case ExprLiteralFloat:
		ret = strconv.FormatFloat(expr.Fval, 'f', -1, 64)
	case ExprFunctionRef:
		ret = expr.Name + "(" + unparseExpr(expr.Expr) + ")"
	case ExprOperator:
		ret = unparseOperator(expr)
	default:
		ret = "???"
	}
	if expr.Alias != "" {
		ret += " AS " + expr.Alias
	}
	return ret
}

func unparseOperator(expr *Expr) string {
	var sb strings.Builder
	if expr.Op == OpNot {
		sb.WriteString("NOT ")
		sb.WriteString(unparseExpr(expr.Expr))
		return sb.String()
	}
	sb.WriteString(unparseExpr(expr.Expr))
	sb.WriteString(" ")
	switch expr.Op {
	case OpSimple:
		sb.WriteByte(expr.OpChar)
	case OpAnd:
		sb.WriteString("AND")
	case OpOr:
		sb.WriteString("OR")
	default:
		sb.WriteString("???")
	}
	if expr.Expr2 != nil {
		sb.WriteString(" ")
		sb.WriteString(unparseExpr(expr.Expr2))
	}
	return sb.String()
}
