package data

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPublishEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	err := PublishEvent(context.Background(), rdb, EventProposalFinalized, map[string]interface{}{
		"id":     "prop-1",
		"status": "APPROVED",
	})
	require.NoError(t, err)

	entries, err := rdb.XRange(context.Background(), "legisrev.events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, EventProposalFinalized, entries[0].Values["event"])
	require.Equal(t, "prop-1", entries[0].Values["id"])
}
