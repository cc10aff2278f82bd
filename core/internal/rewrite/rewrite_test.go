package rewrite

import (
	"testing"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/stretchr/testify/assert"
)

const createUsers = "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(50));"

func TestApplyCreateTable(t *testing.T) {
	tests := []struct {
		to   dialect.ID
		want string
	}{
		{dialect.MySQL, createUsers},
		{dialect.Postgres, "CREATE TABLE t (id INTEGER PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY, name VARCHAR(50));"},
		{dialect.Oracle, "CREATE TABLE t (id NUMBER(10) GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, name VARCHAR2(50));"},
		{dialect.MSSQL, "CREATE TABLE t (id INT PRIMARY KEY IDENTITY(1,1), name VARCHAR(50));"},
		{dialect.SQLite, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT);"},
		{dialect.Snowflake, "CREATE TABLE t (id NUMBER PRIMARY KEY AUTOINCREMENT, name VARCHAR(50));"},
		{dialect.BigQuery, "CREATE TABLE t (id INT64 PRIMARY KEY, name STRING);"},
		{dialect.Redshift, "CREATE TABLE t (id INTEGER PRIMARY KEY IDENTITY(1,1), name VARCHAR(50));"},
	}

	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(createUsers, dialect.Get(tt.to)))
		})
	}
}

func TestApplyDecimal(t *testing.T) {
	in := "CREATE TABLE p (price DECIMAL(10,2));"

	assert.Equal(t, "CREATE TABLE p (price NUMBER(10,2));", Apply(in, dialect.Get(dialect.Snowflake)))
	assert.Equal(t, "CREATE TABLE p (price NUMERIC(10,2));", Apply(in, dialect.Get(dialect.BigQuery)))
	assert.Equal(t, "CREATE TABLE p (price NUMBER(10,2));", Apply(in, dialect.Get(dialect.Oracle)))
	assert.Equal(t, "CREATE TABLE p (price REAL);", Apply(in, dialect.Get(dialect.SQLite)))
	assert.Equal(t, in, Apply(in, dialect.Get(dialect.Postgres)))
}

func TestApplyPostgresTimestamps(t *testing.T) {
	in := "CREATE TABLE `users` (\n" +
		"  `id` INT PRIMARY KEY AUTO_INCREMENT,\n" +
		"  `created` DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,\n" +
		"  `seen` TIMESTAMP\n" +
		");"
	want := "CREATE TABLE \"users\" (\n" +
		"  \"id\" INTEGER PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY,\n" +
		"  \"created\" TIMESTAMP DEFAULT CURRENT_TIMESTAMP,\n" +
		"  \"seen\" TIMESTAMPTZ\n" +
		");"

	assert.Equal(t, want, Apply(in, dialect.Get(dialect.Postgres)))
}

func TestApplyMSSQL(t *testing.T) {
	in := "CREATE TABLE `t` (`ts` TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP, s ENUM('a','b'));"
	want := "CREATE TABLE [t] ([ts] DATETIME2 DEFAULT GETDATE(), s VARCHAR(20));"

	assert.Equal(t, want, Apply(in, dialect.Get(dialect.MSSQL)))
}

func TestApplySnowflakeDefaults(t *testing.T) {
	p := dialect.Get(dialect.Snowflake)

	assert.Equal(t, "CREATE TABLE t (c TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP());",
		Apply("CREATE TABLE t (c DATETIME DEFAULT CURRENT_TIMESTAMP);", p))
	assert.Equal(t, "CREATE TABLE t (c TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP(3));",
		Apply("CREATE TABLE t (c DATETIME DEFAULT CURRENT_TIMESTAMP(3));", p))
}

func TestApplyMySQLTableOptions(t *testing.T) {
	in := "CREATE TABLE t (id INT UNSIGNED NOT NULL COMMENT 'pk') ENGINE=InnoDB AUTO_INCREMENT=10 DEFAULT CHARSET=utf8mb4;"

	assert.Equal(t, "CREATE TABLE t (id INTEGER NOT NULL);", Apply(in, dialect.Get(dialect.Postgres)))
	assert.Equal(t, in, Apply(in, dialect.Get(dialect.MySQL)))
}

func TestApplyKeepsLiterals(t *testing.T) {
	in := "INSERT INTO t (note) VALUES ('INT and DATETIME stay'); -- INT too"
	assert.Equal(t, in, Apply(in, dialect.Get(dialect.Postgres)))
}

func TestApplyBigQueryForeignKeys(t *testing.T) {
	p := dialect.Get(dialect.BigQuery)

	assert.Equal(t, "",
		Apply("ALTER TABLE employees ADD FOREIGN KEY (manager_id) REFERENCES employees(emp_id);", p))
	assert.Equal(t, "",
		Apply("alter table o\n  add constraint fk_u foreign key (uid) references u(id);", p))

	in := "CREATE TABLE e (\n  id INT,\n  dept_id INT,\n" +
		"  FOREIGN KEY (dept_id) REFERENCES departments(dept_id) ON DELETE CASCADE\n);"
	assert.Equal(t, "CREATE TABLE e (\n  id INT64,\n  dept_id INT64\n);", Apply(in, p))

	// an unrelated ALTER survives
	assert.Equal(t, "ALTER TABLE e ADD COLUMN c INT64;", Apply("ALTER TABLE e ADD COLUMN c INT;", p))
}

func TestApplyAlterKeepsOtherClauses(t *testing.T) {
	p := dialect.Get(dialect.BigQuery)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "foreign key last",
			in:   "ALTER TABLE employees ADD COLUMN manager_id INT NULL, ADD FOREIGN KEY (manager_id) REFERENCES employees(emp_id);",
			want: "ALTER TABLE employees ADD COLUMN manager_id INT64 NULL;",
		},
		{
			name: "foreign key first",
			in:   "ALTER TABLE e ADD CONSTRAINT fk_d FOREIGN KEY (d) REFERENCES p(id) ON DELETE CASCADE, ADD COLUMN c INT;",
			want: "ALTER TABLE e ADD COLUMN c INT64;",
		},
		{
			name: "foreign key in the middle",
			in:   "ALTER TABLE e ADD COLUMN a INT, ADD FOREIGN KEY (a) REFERENCES p(id), ADD COLUMN b INT;",
			want: "ALTER TABLE e ADD COLUMN a INT64, ADD COLUMN b INT64;",
		},
		{
			name: "two foreign keys only",
			in:   "ALTER TABLE e ADD FOREIGN KEY (a) REFERENCES p(id), ADD FOREIGN KEY (b) REFERENCES q(id);",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.in, p))
			assert.Equal(t, tt.want == "", Drops(tt.in, p))
		})
	}
}

func TestDrops(t *testing.T) {
	alter := "-- link\nALTER TABLE `o` ADD CONSTRAINT `fk` FOREIGN KEY (uid) REFERENCES u(id);"

	assert.True(t, Drops(alter, dialect.Get(dialect.BigQuery)))
	assert.False(t, Drops(alter, dialect.Get(dialect.Postgres)))
	assert.False(t, Drops("ALTER TABLE o ADD COLUMN c INT;", dialect.Get(dialect.BigQuery)))
	assert.False(t, Drops("INSERT INTO t VALUES ('ALTER TABLE x ADD FOREIGN KEY');", dialect.Get(dialect.BigQuery)))
}

func TestApplyAnnotate(t *testing.T) {
	p := dialect.Get(dialect.Snowflake)
	in := "CREATE TABLE o (id INT, uid INT, FOREIGN KEY (uid) REFERENCES u(id));"
	want := "-- Snowflake doesn't enforce FOREIGN KEY constraints:\n" +
		"CREATE TABLE o (id NUMBER, uid NUMBER, FOREIGN KEY (uid) REFERENCES u(id));"

	out := Apply(in, p)
	assert.Equal(t, want, out)
	assert.Equal(t, want, Apply(out, p))

	// a foreign key mentioned in a literal does not count
	lit := "INSERT INTO notes VALUES ('FOREIGN KEY');"
	assert.Equal(t, lit, Apply(lit, p))
}

func TestApplyRepeatedTerminators(t *testing.T) {
	assert.Equal(t, "SELECT (1);", Apply("SELECT (1);;", dialect.Get(dialect.MySQL)))
}

func TestApplyDeterministic(t *testing.T) {
	p := dialect.Get(dialect.Oracle)
	first := Apply(createUsers, p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Apply(createUsers, p))
	}
}
