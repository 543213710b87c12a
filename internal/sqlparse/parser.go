package sqlparse

import (
	"fmt"
	"strings"
)

// Parse turns one SQL statement into its tree. Keywords are matched
// case-insensitively; trailing semicolons are tolerated.
func Parse(input string) (Statement, error) {
	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// Allow a trailing semicolon, then require end of input.
	if p.tok.kind == tokSymbol && p.tok.text == ";" {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after statement", p.tok.text)
	}
	return stmt, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// isKeyword reports whether the current token is the given keyword.
func (p *parser) isKeyword(kw string) bool {
	return p.tok.kind == tokIdent && strings.EqualFold(p.tok.text, kw)
}

// acceptKeyword consumes the current token when it is the given keyword.
func (p *parser) acceptKeyword(kw string) (bool, error) {
	if !p.isKeyword(kw) {
		return false, nil
	}
	return true, p.advance()
}

// expectKeyword consumes the given keyword or fails.
func (p *parser) expectKeyword(kw string) error {
	ok, err := p.acceptKeyword(kw)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected %s, got %q", kw, p.tok.text)
	}
	return nil
}

// acceptSymbol consumes the current token when it is the given punctuation.
func (p *parser) acceptSymbol(sym string) (bool, error) {
	if p.tok.kind != tokSymbol || p.tok.text != sym {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) expectSymbol(sym string) error {
	ok, err := p.acceptSymbol(sym)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected %q, got %q", sym, p.tok.text)
	}
	return nil
}

// expectIdent consumes and returns an identifier token.
func (p *parser) expectIdent(what string) (string, error) {
	if p.tok.kind != tokIdent {
		return "", fmt.Errorf("expected %s, got %q", what, p.tok.text)
	}
	name := p.tok.text
	return name, p.advance()
}

func (p *parser) parseStatement() (Statement, error) {
	switch {
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("DROP"):
		return p.parseDrop()
	case p.isKeyword("SHOW"):
		return p.parseShow()
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	default:
		return nil, fmt.Errorf("expected a statement, got %q", p.tok.text)
	}
}

func (p *parser) parseCreate() (Statement, error) {
	if err := p.advance(); err != nil { // CREATE
		return nil, err
	}
	switch {
	case p.isKeyword("TABLE"):
		return p.parseCreateTable()
	case p.isKeyword("INDEX"):
		return p.parseCreateIndex()
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX after CREATE, got %q", p.tok.text)
	}
}

func (p *parser) parseCreateTable() (Statement, error) {
	if err := p.advance(); err != nil { // TABLE
		return nil, err
	}
	stmt := &CreateStatement{Kind: CreateTable}
	if p.isKeyword("IF") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = name
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	for {
		colName, err := p.expectIdent("column name")
		if err != nil {
			return nil, err
		}
		colType, err := p.parseColumnType()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, ColumnDefinition{Name: colName, Type: colType})
		if ok, err := p.acceptSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseColumnType() (ColumnType, error) {
	if p.tok.kind != tokIdent {
		return ColumnUnknown, fmt.Errorf("expected column type, got %q", p.tok.text)
	}
	var ct ColumnType
	switch strings.ToUpper(p.tok.text) {
	case "INT", "INTEGER":
		ct = ColumnInt
	case "TEXT":
		ct = ColumnText
	case "DOUBLE":
		ct = ColumnDouble
	default:
		ct = ColumnUnknown
	}
	return ct, p.advance()
}

func (p *parser) parseCreateIndex() (Statement, error) {
	if err := p.advance(); err != nil { // INDEX
		return nil, err
	}
	stmt := &CreateStatement{Kind: CreateIndex, IndexType: "BTREE"}
	name, err := p.expectIdent("index name")
	if err != nil {
		return nil, err
	}
	stmt.Index = name
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectIdent("column name")
		if err != nil {
			return nil, err
		}
		stmt.IndexColumns = append(stmt.IndexColumns, col)
		if ok, err := p.acceptSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if ok, err := p.acceptKeyword("USING"); err != nil {
		return nil, err
	} else if ok {
		using, err := p.expectIdent("index type")
		if err != nil {
			return nil, err
		}
		stmt.IndexType = strings.ToUpper(using)
	}
	return stmt, nil
}

func (p *parser) parseDrop() (Statement, error) {
	if err := p.advance(); err != nil { // DROP
		return nil, err
	}
	switch {
	case p.isKeyword("TABLE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent("table name")
		if err != nil {
			return nil, err
		}
		return &DropStatement{Kind: DropTable, Table: name}, nil
	case p.isKeyword("INDEX"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		index, err := p.expectIdent("index name")
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("FROM"); err != nil {
			return nil, err
		}
		table, err := p.expectIdent("table name")
		if err != nil {
			return nil, err
		}
		return &DropStatement{Kind: DropIndex, Table: table, Index: index}, nil
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX after DROP, got %q", p.tok.text)
	}
}

func (p *parser) parseShow() (Statement, error) {
	if err := p.advance(); err != nil { // SHOW
		return nil, err
	}
	switch {
	case p.isKeyword("TABLES"):
		return &ShowStatement{Kind: ShowTables}, p.advance()
	case p.isKeyword("COLUMNS"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("FROM"); err != nil {
			return nil, err
		}
		table, err := p.expectIdent("table name")
		if err != nil {
			return nil, err
		}
		return &ShowStatement{Kind: ShowColumns, Table: table}, nil
	case p.isKeyword("INDEX"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("FROM"); err != nil {
			return nil, err
		}
		table, err := p.expectIdent("table name")
		if err != nil {
			return nil, err
		}
		return &ShowStatement{Kind: ShowIndex, Table: table}, nil
	default:
		return nil, fmt.Errorf("expected TABLES, COLUMNS, or INDEX after SHOW, got %q", p.tok.text)
	}
}

func (p *parser) parseSelect() (Statement, error) {
	if err := p.advance(); err != nil { // SELECT
		return nil, err
	}
	stmt := &SelectStatement{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if ok, err := p.acceptKeyword("AS"); err != nil {
			return nil, err
		} else if ok {
			alias, err := p.expectIdent("alias")
			if err != nil {
				return nil, err
			}
			expr.Alias = alias
		}
		stmt.List = append(stmt.List, expr)
		if ok, err := p.acceptSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseTableRefList()
	if err != nil {
		return nil, err
	}
	stmt.From = from
	if ok, err := p.acceptKeyword("WHERE"); err != nil {
		return nil, err
	} else if ok {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// parseTableRefList parses a comma-separated FROM list; two or more entries
// form a cross product.
func (p *parser) parseTableRefList() (*TableRef, error) {
	first, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	refs := []*TableRef{first}
	for {
		ok, err := p.acceptSymbol(",")
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if len(refs) == 1 {
		return refs[0], nil
	}
	return &TableRef{Kind: TableCrossProduct, List: refs}, nil
}

// parseTableRef parses one table factor and any trailing join chain.
func (p *parser) parseTableRef() (*TableRef, error) {
	left, err := p.parseTableFactor()
	if err != nil {
		return nil, err
	}
	for {
		kind, ok, err := p.parseJoinKind()
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseTableFactor()
		if err != nil {
			return nil, err
		}
		join := &JoinDefinition{Left: left, Right: right, Kind: kind}
		if ok, err := p.acceptKeyword("ON"); err != nil {
			return nil, err
		} else if ok {
			cond, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			join.Condition = cond
		}
		left = &TableRef{Kind: TableJoin, Join: join}
	}
}

// parseJoinKind consumes a join introducer when present.
func (p *parser) parseJoinKind() (JoinKind, bool, error) {
	switch {
	case p.isKeyword("JOIN"):
		return JoinInner, true, p.advance()
	case p.isKeyword("INNER"), p.isKeyword("LEFT"), p.isKeyword("RIGHT"), p.isKeyword("NATURAL"), p.isKeyword("CROSS"):
		var kind JoinKind
		switch strings.ToUpper(p.tok.text) {
		case "INNER":
			kind = JoinInner
		case "LEFT":
			kind = JoinLeft
		case "RIGHT":
			kind = JoinRight
		case "NATURAL":
			kind = JoinNatural
		case "CROSS":
			kind = JoinCross
		}
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		if _, err := p.acceptKeyword("OUTER"); err != nil {
			return 0, false, err
		}
		if err := p.expectKeyword("JOIN"); err != nil {
			return 0, false, err
		}
		return kind, true, nil
	default:
		return 0, false, nil
	}
}

func (p *parser) parseTableFactor() (*TableRef, error) {
	name, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	ref := &TableRef{Kind: TableName, Name: name}
	if ok, err := p.acceptKeyword("AS"); err != nil {
		return nil, err
	} else if ok {
		alias, err := p.expectIdent("alias")
		if err != nil {
			return nil, err
		}
		ref.Alias = alias
	}
	return ref, nil
}

// Expression grammar, loosest binding first: OR, AND, NOT, comparison,
// primary.
func (p *parser) parseExpr() (*Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.acceptKeyword("OR")
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprOperator, Op: OpOr, Expr: left, Expr2: right}
	}
}

func (p *parser) parseAnd() (*Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.acceptKeyword("AND")
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprOperator, Op: OpAnd, Expr: left, Expr2: right}
	}
}

func (p *parser) parseNot() (*Expr, error) {
	ok, err := p.acceptKeyword("NOT")
	if err != nil {
		return nil, err
	}
	if ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOperator, Op: OpNot, Expr: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokSymbol && (p.tok.text == "=" || p.tok.text == "<" || p.tok.text == ">") {
		opChar := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOperator, Op: OpSimple, OpChar: opChar, Expr: left, Expr2: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (*Expr, error) {
	switch p.tok.kind {
	case tokSymbol:
		switch p.tok.text {
		case "*":
			return &Expr{Kind: ExprStar}, p.advance()
		case "(":
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return expr, p.expectSymbol(")")
		}
	case tokInt:
		expr := &Expr{Kind: ExprLiteralInt, Ival: p.tok.ival}
		return expr, p.advance()
	case tokFloat:
		expr := &Expr{Kind: ExprLiteralFloat, Fval: p.tok.fval}
		return expr, p.advance()
	case tokString:
		expr := &Expr{Kind: ExprLiteralString, Name: p.tok.text}
		return expr, p.advance()
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if ok, err := p.acceptSymbol("("); err != nil {
			return nil, err
		} else if ok {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprFunctionRef, Name: name, Expr: arg}, nil
		}
		if ok, err := p.acceptSymbol("."); err != nil {
			return nil, err
		} else if ok {
			col, err := p.expectIdent("column name")
			if err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprColumnRef, Table: name, Name: col}, nil
		}
		return &Expr{Kind: ExprColumnRef, Name: name}, nil
	}
	return nil, fmt.Errorf("expected an expression, got %q", p.tok.text)
}
