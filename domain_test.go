package locsearch_test

import (
	"testing"

	"github.com/fwojciec/locsearch"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "example.com", "example.com"},
		{"strips https scheme", "https://example.com", "example.com"},
		{"strips http scheme", "http://example.com", "example.com"},
		{"strips www prefix", "www.example.com", "example.com"},
		{"strips scheme and www", "https://www.example.com", "example.com"},
		{"strips path", "example.com/docs/intro", "example.com"},
		{"strips everything at once", "https://www.example.com/about/", "example.com"},
		{"lowercases", "Example.COM", "example.com"},
		{"trims whitespace", "  example.com  ", "example.com"},
		{"keeps subdomains other than www", "docs.example.com", "docs.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, locsearch.NormalizeDomain(tt.in))
		})
	}
}

func TestDomain_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid domain", func(t *testing.T) {
		t.Parallel()

		d := &locsearch.Domain{Name: "example.com"}

		assert.NoError(t, d.Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		d := &locsearch.Domain{}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(d.Validate()))
	})

	t.Run("name with path", func(t *testing.T) {
		t.Parallel()

		d := &locsearch.Domain{Name: "example.com/docs"}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(d.Validate()))
	})

	t.Run("name with space", func(t *testing.T) {
		t.Parallel()

		d := &locsearch.Domain{Name: "example com"}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(d.Validate()))
	})
}
