package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"plain file", "forum.db", "forum.db?_foreign_keys=on"},
		{"uri with params", "file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared&_foreign_keys=on"},
		{"already set", "forum.db?_foreign_keys=off", "forum.db?_foreign_keys=off"},
		{"short alias", "forum.db?_fk=1", "forum.db?_fk=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLiteDSN(tt.dsn))
		})
	}
}
