package receipt

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLIssuer_Issue(t *testing.T) {
	issuer := NewURLIssuer("https://carewatch.example/")

	a, err := issuer.Issue(context.Background(), "O001")
	require.NoError(t, err)
	b, err := issuer.Issue(context.Background(), "O001")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^https://carewatch\.example/receipts/receipt_[0-9a-f-]{36}\.pdf$`)
	assert.Regexp(t, pattern, a)
	assert.NotEqual(t, a, b)
}
