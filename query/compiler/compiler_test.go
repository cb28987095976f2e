package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/builder"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

func mustBuild(t *testing.T, b builder.Builder) ast.Tree {
	t.Helper()
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func compile(t *testing.T, d operators.Dialect, tree ast.Tree) *CompiledQuery {
	t.Helper()
	c, err := New(d)
	require.NoError(t, err)
	q, err := c.CompileSelect(tree)
	require.NoError(t, err)
	return q
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New(operators.Dialect("oracle"))
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestSameTreeAcrossDialects(t *testing.T) {
	tree := mustBuild(t, builder.New("users").
		Where("age", "gt", 18).
		Where("status", "eq", "active").
		OrderBy("name", "asc").
		Limit(10))

	pg := compile(t, operators.Postgres, tree)
	assert.Equal(t,
		`SELECT * FROM "users" WHERE ("age" > $1 AND "status" = $2) ORDER BY "name" ASC LIMIT 10`,
		pg.SQL)
	assert.Equal(t, []interface{}{18, "active"}, pg.Args)

	my := compile(t, operators.MySQL, tree)
	assert.Equal(t,
		"SELECT * FROM `users` WHERE (`age` > ? AND `status` = ?) ORDER BY `name` ASC LIMIT 10",
		my.SQL)
	// Same parameter list in the same order, whatever the dialect.
	assert.Equal(t, pg.Args, my.Args)

	ms := compile(t, operators.SQLServer, tree)
	assert.Equal(t,
		"SELECT TOP (10) * FROM [users] WHERE ([age] > @p1 AND [status] = @p2) ORDER BY [name] ASC",
		ms.SQL)
	assert.Equal(t, pg.Args, ms.Args)
}

func TestCompilationIsDeterministic(t *testing.T) {
	tree := mustBuild(t, builder.New("orders").
		Where("total", "between", 10, 100).
		OrWhere("status", "in", "new", "paid").
		OrderBy("created_at", "desc").
		Limit(20).
		Offset(40))

	first := compile(t, operators.Postgres, tree)
	for i := 0; i < 5; i++ {
		again := compile(t, operators.Postgres, tree)
		assert.Equal(t, first.SQL, again.SQL)
		assert.Equal(t, first.Args, again.Args)
	}
}

func TestRawFragmentRenumbering(t *testing.T) {
	tree := mustBuild(t, builder.New("tickets").
		RawWhere("age > ? AND (status = ? OR priority = ?)", 18, "active", "high").
		Limit(5))

	pg := compile(t, operators.Postgres, tree)
	assert.Equal(t,
		`SELECT * FROM "tickets" WHERE (age > $1 AND (status = $2 OR priority = $3)) LIMIT 5`,
		pg.SQL)
	assert.Equal(t, []interface{}{18, "active", "high"}, pg.Args)

	my := compile(t, operators.MySQL, tree)
	assert.Equal(t,
		"SELECT * FROM `tickets` WHERE (age > ? AND (status = ? OR priority = ?)) LIMIT 5",
		my.SQL)
	assert.Equal(t, pg.Args, my.Args)
}

func TestRawMixedWithComparisons(t *testing.T) {
	tree := mustBuild(t, builder.New("tickets").
		Where("assignee", "isnotnull").
		RawWhere("priority >= ?", 3))

	pg := compile(t, operators.Postgres, tree)
	assert.Equal(t,
		`SELECT * FROM "tickets" WHERE ("assignee" IS NOT NULL AND (priority >= $1))`,
		pg.SQL)
	assert.Equal(t, []interface{}{3}, pg.Args)
}

func TestJoinsCompile(t *testing.T) {
	tree := mustBuild(t, builder.New("users").As("u").
		Select("u.id", "p.title").
		Join("posts", "p", ast.MustCmp("p.author_id", "eq", ast.Col("u.id"))).
		Where("u.active", "eq", true))

	pg := compile(t, operators.Postgres, tree)
	assert.Equal(t,
		`SELECT "u"."id", "p"."title" FROM "users" AS "u" INNER JOIN "posts" AS "p" ON "p"."author_id" = "u"."id" WHERE "u"."active" = $1`,
		pg.SQL)
	// Column-to-column conditions consume no placeholders.
	assert.Equal(t, []interface{}{true}, pg.Args)
}

func TestSQLiteRejectsRightJoin(t *testing.T) {
	on := ast.MustCmp("p.author_id", "eq", ast.Col("users.id"))

	right := mustBuild(t, builder.New("users").RightJoin("posts", "p", on))
	c, err := New(operators.SQLite)
	require.NoError(t, err)
	_, err = c.CompileSelect(right)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)

	left := mustBuild(t, builder.New("users").LeftJoin("posts", "p", on))
	q, err := c.CompileSelect(left)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "users" LEFT JOIN "posts" AS "p" ON "p"."author_id" = "users"."id"`,
		q.SQL)
}

func TestPaginationQuirks(t *testing.T) {
	offsetOnly := mustBuild(t, builder.New("t").Offset(20))

	assert.Equal(t, `SELECT * FROM "t" OFFSET 20`,
		compile(t, operators.Postgres, offsetOnly).SQL)
	assert.Equal(t, "SELECT * FROM `t` LIMIT 18446744073709551615 OFFSET 20",
		compile(t, operators.MySQL, offsetOnly).SQL)
	assert.Equal(t, `SELECT * FROM "t" LIMIT -1 OFFSET 20`,
		compile(t, operators.SQLite, offsetOnly).SQL)

	zero := mustBuild(t, builder.New("t").Limit(0))
	assert.Equal(t, `SELECT * FROM "t" LIMIT 0`,
		compile(t, operators.Postgres, zero).SQL)
	assert.Equal(t, "SELECT TOP (0) * FROM [t]",
		compile(t, operators.SQLServer, zero).SQL)

	unset := mustBuild(t, builder.New("t"))
	assert.Equal(t, `SELECT * FROM "t"`,
		compile(t, operators.Postgres, unset).SQL)
}

func TestSQLServerOffsetNeedsOrderBy(t *testing.T) {
	c, err := New(operators.SQLServer)
	require.NoError(t, err)

	_, err = c.CompileSelect(mustBuild(t, builder.New("t").Offset(20).Limit(10)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)

	q, err := c.CompileSelect(mustBuild(t, builder.New("t").
		OrderBy("id", "asc").Offset(20).Limit(10)))
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM [t] ORDER BY [id] ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		q.SQL)
}

func TestOperatorRendering(t *testing.T) {
	tests := []struct {
		name    string
		dialect operators.Dialect
		b       builder.Builder
		sql     string
		args    []interface{}
	}{
		{
			"in list", operators.Postgres,
			builder.New("t").Where("status", "in", "a", "b", "c"),
			`SELECT * FROM "t" WHERE "status" IN ($1, $2, $3)`,
			[]interface{}{"a", "b", "c"},
		},
		{
			"contains wraps pattern", operators.Postgres,
			builder.New("t").Where("name", "contains", "ann"),
			`SELECT * FROM "t" WHERE "name" LIKE $1`,
			[]interface{}{"%ann%"},
		},
		{
			"icontains on mysql", operators.MySQL,
			builder.New("t").Where("name", "icontains", "ann"),
			"SELECT * FROM `t` WHERE LOWER(`name`) LIKE LOWER(?)",
			[]interface{}{"%ann%"},
		},
		{
			"isnull binds nothing", operators.Postgres,
			builder.New("t").Where("deleted_at", "isnull"),
			`SELECT * FROM "t" WHERE "deleted_at" IS NULL`,
			nil,
		},
		{
			"negation", operators.Postgres,
			builder.New("t").WhereNot("status", "eq", "banned"),
			`SELECT * FROM "t" WHERE NOT ("status" = $1)`,
			[]interface{}{"banned"},
		},
		{
			"between", operators.SQLite,
			builder.New("t").Where("age", "range", 18, 65),
			`SELECT * FROM "t" WHERE "age" BETWEEN ? AND ?`,
			[]interface{}{18, 65},
		},
		{
			"date part", operators.Postgres,
			builder.New("t").Where("created_at", "year", 2024),
			`SELECT * FROM "t" WHERE EXTRACT(YEAR FROM "created_at") = $1`,
			[]interface{}{2024},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := compile(t, tc.dialect, mustBuild(t, tc.b))
			assert.Equal(t, tc.sql, q.SQL)
			if tc.args == nil {
				assert.Empty(t, q.Args)
			} else {
				assert.Equal(t, tc.args, q.Args)
			}
		})
	}
}

func TestUnsupportedOperatorsFailAtCompile(t *testing.T) {
	c, err := New(operators.Postgres)
	require.NoError(t, err)

	unknown := ast.Tree{Target: ast.Target{Name: "t"}, Where: ast.MustCmp("a", "frobnicate", 1)}
	_, err = c.CompileSelect(unknown)
	require.Error(t, err)
	assert.ErrorIs(t, err, operators.ErrUnsupportedOperator)

	lite, err := New(operators.SQLite)
	require.NoError(t, err)
	regex := ast.Tree{Target: ast.Target{Name: "t"}, Where: ast.MustCmp("name", "regexp", "^a")}
	_, err = lite.CompileSelect(regex)
	require.Error(t, err)
	assert.ErrorIs(t, err, operators.ErrUnsupportedOperatorForDialect)
}

func TestHandBuiltTreeArityChecked(t *testing.T) {
	c, err := New(operators.Postgres)
	require.NoError(t, err)
	tree := ast.Tree{
		Target: ast.Target{Name: "t"},
		Where:  ast.Comparison{Column: "age", Operator: "between", Values: []interface{}{1}},
	}
	_, err = c.CompileSelect(tree)
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrInvalidArgument)
}

func TestCompileCount(t *testing.T) {
	tree := mustBuild(t, builder.New("users").
		Where("age", "gte", 18).
		OrderBy("name", "asc").
		Limit(10).
		Offset(5))

	c, err := New(operators.Postgres)
	require.NoError(t, err)
	q, err := c.CompileCount(tree)
	require.NoError(t, err)
	// Ordering and pagination do not change the count.
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "age" >= $1`, q.SQL)
	assert.Equal(t, []interface{}{18}, q.Args)
}

func TestCompileInsert(t *testing.T) {
	pg, err := New(operators.Postgres)
	require.NoError(t, err)
	q, err := pg.CompileInsert("users", []string{"name", "age"}, []interface{}{"ann", 30})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("name", "age") VALUES ($1, $2) RETURNING *`, q.SQL)
	assert.Equal(t, []interface{}{"ann", 30}, q.Args)

	my, err := New(operators.MySQL)
	require.NoError(t, err)
	q, err = my.CompileInsert("users", []string{"name", "age"}, []interface{}{"ann", 30})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`name`, `age`) VALUES (?, ?)", q.SQL)

	_, err = pg.CompileInsert("users", []string{"name"}, []interface{}{"ann", 30})
	assert.ErrorIs(t, err, ast.ErrInvalidArgument)
}

func TestCompileUpdate(t *testing.T) {
	pg, err := New(operators.Postgres)
	require.NoError(t, err)

	q, err := pg.CompileUpdate("users",
		[]Assignment{{Column: "name", Value: "bea"}, {Column: "status", Value: "active"}},
		ast.MustCmp("id", "eq", 7))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "status" = $2 WHERE "id" = $3`, q.SQL)
	assert.Equal(t, []interface{}{"bea", "active", 7}, q.Args)

	_, err = pg.CompileUpdate("users", nil, nil)
	assert.ErrorIs(t, err, ast.ErrInvalidArgument)
}

func TestCompileDelete(t *testing.T) {
	pg, err := New(operators.Postgres)
	require.NoError(t, err)

	q, err := pg.CompileDelete("users", ast.MustCmp("id", "eq", 7))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" = $1`, q.SQL)
	assert.Equal(t, []interface{}{7}, q.Args)

	q, err = pg.CompileDelete("users", nil)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users" WHERE 1=0`, q.SQL)
	assert.Empty(t, q.Args)
}

func TestRawCompiledQuery(t *testing.T) {
	q := Raw("SELECT * FROM users WHERE id = $1", 7)
	assert.Equal(t, "SELECT * FROM users WHERE id = $1", q.SQL)
	assert.Equal(t, []interface{}{7}, q.Args)
}

func TestMissingTarget(t *testing.T) {
	pg, err := New(operators.Postgres)
	require.NoError(t, err)
	_, err = pg.CompileSelect(ast.Tree{})
	assert.ErrorIs(t, err, ast.ErrInvalidArgument)
	_, err = pg.CompileCount(ast.Tree{})
	assert.ErrorIs(t, err, ast.ErrInvalidArgument)
}
