package pubsub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tubedigest/infrastructure/pubsub"
)

// TestSelectionEvents_NilClient verifies the publisher degrades to a no-op
// when no broker is configured.
func TestSelectionEvents_NilClient(t *testing.T) {
	events := pubsub.NewSelectionEvents(nil, "selection-changed")
	assert.NotNil(t, events)

	err := events.SelectionChanged(context.Background(), "user-1", []string{"UCa", "UCb"})
	assert.NoError(t, err)
}
