package transpile

import (
	"context"
	"fmt"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	"vitess.io/vitess/go/vt/sqlparser"
)

const mysqlServerVersion = "8.0.40"

// Vitess parses MySQL family SQL into an AST, maps data types and function
// names to the target and prints it back. Anything the MySQL grammar does
// not accept is reported as an error.
type Vitess struct {
	parser *sqlparser.Parser
}

func NewVitess() (*Vitess, error) {
	p, err := sqlparser.New(sqlparser.Options{
		MySQLServerVersion: mysqlServerVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("vitess parser: %w", err)
	}
	return &Vitess{parser: p}, nil
}

func (v *Vitess) Name() string { return "vitess" }

func (v *Vitess) Transpile(ctx context.Context, stmt string, from, to dialect.ID) (string, error) {
	p := dialect.Get(to)
	if p == nil {
		return "", fmt.Errorf("%w %q", dialect.ErrUnknown, to)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	ast, err := v.parser.Parse(stmt)
	if err != nil {
		return "", err
	}

	if to != dialect.MySQL {
		mapColumns(ast, p)

		var unsupported string
		sqlparser.Rewrite(ast, func(c *sqlparser.Cursor) bool {
			switch n := c.Node().(type) {
			case *sqlparser.CastExpr:
				mapConvertType(n.Type, p)
			case *sqlparser.ConvertExpr:
				mapConvertType(n.Type, p)
			case *sqlparser.FuncExpr:
				if name, ok := p.FuncMap[strings.ToUpper(n.Name.String())]; ok {
					n.Name = sqlparser.NewIdentifierCI(name)
				}
			case *sqlparser.GroupBy:
				if n.WithRollup && noRollup[to] {
					unsupported = "GROUP BY ... WITH ROLLUP"
				}
			case *sqlparser.With:
				// the CTE is recursive by reference alone
				if n.Recursive && noRecursiveKeyword[to] {
					n.Recursive = false
				}
			}
			return true
		}, nil)

		if unsupported != "" {
			return "", fmt.Errorf("%w: %s in %s", ErrUnsupported, unsupported, p.DisplayName)
		}
	}

	if p.LimitStyle == dialect.LimitOffsetFetch {
		if out, ok := offsetFetch(ast, to); ok {
			return out, nil
		}
	}
	return render(ast, to), nil
}

var (
	noRollup           = map[dialect.ID]bool{dialect.SQLite: true}
	noRecursiveKeyword = map[dialect.ID]bool{dialect.Oracle: true, dialect.MSSQL: true}
)

// render prints ast for the target. Outside MySQL a rollup is spelled
// GROUP BY ROLLUP(...).
func render(ast sqlparser.SQLNode, to dialect.ID) string {
	if to == dialect.MySQL {
		return sqlparser.String(ast)
	}

	buf := sqlparser.NewTrackedBuffer(func(buf *sqlparser.TrackedBuffer, node sqlparser.SQLNode) {
		gb, ok := node.(*sqlparser.GroupBy)
		if !ok || gb == nil || !gb.WithRollup || len(gb.Exprs) == 0 {
			node.Format(buf)
			return
		}

		buf.WriteString(" group by rollup(")
		for i, e := range gb.Exprs {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.Myprintf("%v", e)
		}
		buf.WriteString(")")
	})
	buf.Myprintf("%v", ast)
	return buf.String()
}

func lookupType(p *dialect.Profile, name string) (string, bool) {
	t, ok := p.TypeMap[strings.ToUpper(name)]
	return t, ok
}

// mapColumns rewrites column types of CREATE and ALTER TABLE statements
func mapColumns(ast sqlparser.Statement, p *dialect.Profile) {
	var cols []*sqlparser.ColumnDefinition

	switch st := ast.(type) {
	case *sqlparser.CreateTable:
		if st.TableSpec != nil {
			cols = st.TableSpec.Columns
		}
	case *sqlparser.AlterTable:
		for _, opt := range st.AlterOptions {
			if ac, ok := opt.(*sqlparser.AddColumns); ok {
				cols = append(cols, ac.Columns...)
			}
		}
	}

	for _, col := range cols {
		ct := col.Type
		if ct == nil {
			continue
		}
		ct.Unsigned = false

		t, ok := lookupType(p, ct.Type)
		if !ok {
			continue
		}
		ct.Type = t
		if strings.Contains(t, "(") {
			ct.Length, ct.Scale = nil, nil
		}
	}
}

func mapConvertType(ct *sqlparser.ConvertType, p *dialect.Profile) {
	if ct == nil {
		return
	}
	t, ok := lookupType(p, ct.Type)
	if !ok {
		return
	}
	ct.Type = t
	if strings.Contains(t, "(") {
		ct.Length, ct.Scale = nil, nil
	}
}

// offsetFetch renders a top level LIMIT as OFFSET ... FETCH NEXT. SQL Server
// only accepts it after an ORDER BY.
func offsetFetch(ast sqlparser.Statement, to dialect.ID) (string, bool) {
	var limit *sqlparser.Limit
	var ordered bool

	switch st := ast.(type) {
	case *sqlparser.Select:
		limit, ordered = st.Limit, len(st.OrderBy) != 0
		if limit != nil && limit.Rowcount != nil {
			st.Limit = nil
		}
	case *sqlparser.Union:
		limit, ordered = st.Limit, len(st.OrderBy) != 0
		if limit != nil && limit.Rowcount != nil {
			st.Limit = nil
		}
	}

	if limit == nil || limit.Rowcount == nil {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(render(ast, to))

	if to == dialect.MSSQL && !ordered {
		sb.WriteString(" order by (select null)")
	}

	switch {
	case limit.Offset != nil:
		sb.WriteString(" offset " + sqlparser.String(limit.Offset) + " rows")
	case to == dialect.MSSQL:
		sb.WriteString(" offset 0 rows")
	}

	sb.WriteString(" fetch next " + sqlparser.String(limit.Rowcount) + " rows only")
	return sb.String(), true
}
