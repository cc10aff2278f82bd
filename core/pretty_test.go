package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrettify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "Basic Select",
			query: "SELECT * FROM users WHERE id = 1",
			want:  "SELECT *\nFROM users\nWHERE id = 1",
		},
		{
			name: "Complex Query",
			query: "select u.id, p.name from users u join products p on u.id = p.user_id " +
				"where p.price > 10 order by p.price desc limit 5",
			want: "SELECT u.id, p.name\nFROM users u\nJOIN products p on u.id = p.user_id\n" +
				"WHERE p.price > 10\nORDER BY p.price desc\nLIMIT 5",
		},
		{
			name:  "String Literal Protection",
			query: "SELECT 'SELECT  FROM' FROM users",
			want:  "SELECT 'SELECT  FROM'\nFROM users",
		},
		{
			name:  "Quoted Identifiers",
			query: "SELECT `from`, \"where\" FROM t",
			want:  "SELECT `from`, \"where\"\nFROM t",
		},
		{
			name:  "Window Stays Inline",
			query: "select id, row_number() over (partition by d order by s) as rn from emp",
			want:  "SELECT id, row_number() over (partition by d order by s) as rn\nFROM emp",
		},
		{
			name:  "Leading Comment",
			query: "-- report\nselect a from t",
			want:  "-- report\nSELECT a\nFROM t",
		},
		{
			name:  "Qualified Keyword",
			query: "SELECT t.limit FROM t",
			want:  "SELECT t.limit\nFROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prettify(tt.query)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, prettify(got))
		})
	}
}
