package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url form untouched", "postgres://u:p@localhost:5432/offers?sslmode=disable", "postgres://u:p@localhost:5432/offers?sslmode=disable"},
		{"quotes trimmed", `"postgres://u@localhost/offers"`, "postgres://u@localhost/offers"},
		{"kv form gets sslmode", "host=localhost user=u dbname=offers", "host=localhost user=u dbname=offers sslmode=disable"},
		{"kv form spaces collapsed", "host=localhost   user=u  dbname=offers sslmode=require", "host=localhost user=u dbname=offers sslmode=require"},
		{"empty stays empty", "", ""},
		{"garbage passed through", "not-a-dsn", "not-a-dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDSN(tt.in))
		})
	}
}
