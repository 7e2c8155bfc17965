package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredClientAlwaysErrors(t *testing.T) {
	client := NewUnconfiguredClient()

	reply, err := client.Chat(context.Background(), "system", "user")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, reply)
}
