package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const streamEvents = "legisrev.events"

// Event names published to the notification stream. The consumer (mail /
// messenger notifier) runs as a separate service.
const (
	EventCommentCreated    = "comment.created"
	EventProposalCreated   = "proposal.created"
	EventVotingStarted     = "proposal.voting_started"
	EventProposalFinalized = "proposal.finalized"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func PublishEvent(ctx context.Context, rdb *redis.Client, event string, payload map[string]interface{}) error {
	values := map[string]interface{}{"event": event}
	for k, v := range payload {
		values[k] = v
	}
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamEvents,
		Values: values,
	}).Result()
	return err
}
