package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "review-requests", map[string]string{"product_id": "p-1"})
	require.NoError(t, err)
	id2, err := pub.Publish(context.Background(), "review-requests", map[string]string{"product_id": "p-2"})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "review-requests", msgs[0].Topic)
}
