package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxStreamLen caps the stream so acknowledged entries do not pile up.
const maxStreamLen = 10000

type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, values map[string]any) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.stream, err)
	}
	return id, nil
}
