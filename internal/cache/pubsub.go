package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/thorchain-quote/internal/constants"
	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
)

// PublishQuote publishes rec to the live channel and its pair and route
// channels
func (r *RedisCache) PublishQuote(ctx context.Context, rec *models.QuoteRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	channels := []string{
		constants.PubSubChannelQuotes,
		fmt.Sprintf(constants.PubSubChannelPairFmt, rec.Pair),
		fmt.Sprintf(constants.PubSubChannelRouteFmt, rec.Route),
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish quote: %w", err)
	}
	return nil
}

// SubscribeQuotes streams the live channel. The returned channel closes
// when ctx is done.
func (r *RedisCache) SubscribeQuotes(ctx context.Context) (<-chan *models.QuoteRecord, error) {
	ps := r.client.Subscribe(ctx, constants.PubSubChannelQuotes)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", constants.PubSubChannelQuotes, err)
	}

	out := make(chan *models.QuoteRecord, 64)
	go r.pump(ctx, ps, out)
	return out, nil
}

// PSubscribe runs handler for every quote on channels matching pattern
// (e.g. "quotes:pair:*") until ctx is done
func (r *RedisCache) PSubscribe(ctx context.Context, pattern string, handler storage.QuoteHandler) error {
	ps := r.client.PSubscribe(ctx, pattern)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}

	r.logger.WithField("pattern", pattern).Info("subscribed to pattern")

	out := make(chan *models.QuoteRecord, 64)
	go r.pump(ctx, ps, out)
	for rec := range out {
		handler(rec)
	}
	return ctx.Err()
}

func (r *RedisCache) pump(ctx context.Context, ps *redis.PubSub, out chan<- *models.QuoteRecord) {
	defer close(out)
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rec models.QuoteRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				r.logger.WithError(err).WithField("channel", msg.Channel).Warn("error unmarshaling quote")
				continue
			}
			select {
			case out <- &rec:
			case <-ctx.Done():
				return
			}
		}
	}
}
