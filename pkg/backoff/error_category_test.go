package backoff

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, CategoryTransient, CategoryOf(plain), "uncategorized errors stay retryable")

	perm := NewPermanentError(plain)
	assert.Equal(t, CategoryPermanent, CategoryOf(perm))
	assert.True(t, IsPermanent(perm))

	ignored := NewIgnoredError(plain)
	assert.Equal(t, CategoryIgnored, CategoryOf(ignored))
	assert.False(t, IsPermanent(ignored))

	// Category survives wrapping
	wrapped := fmt.Errorf("restore ALB SG: %w", NewPermanentError(plain))
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, plain)
}

func TestCategorizedErrorUnwrap(t *testing.T) {
	inner := errors.New("no mapping")
	ce := NewTransientError(inner)
	assert.Equal(t, "no mapping", ce.Error())
	assert.ErrorIs(t, ce, inner)
}
