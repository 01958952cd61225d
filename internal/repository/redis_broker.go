package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/metinatakli/movie-info-service/internal/stream"
	"github.com/redis/go-redis/v9"
)

const MovieInfoAddedChannel = "movieinfo:added"

var errSubscriptionClosed = errors.New("movie info subscription closed")

// RedisMovieInfoBroker publishes added records on a Redis channel. Every
// subscriber gets its own Redis subscription, so live streams share nothing
// but the client's connection pool.
type RedisMovieInfoBroker struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisMovieInfoBroker(client redis.UniversalClient) *RedisMovieInfoBroker {
	return &RedisMovieInfoBroker{
		client:  client,
		channel: MovieInfoAddedChannel,
	}
}

func (b *RedisMovieInfoBroker) Publish(ctx context.Context, movieInfo *domain.MovieInfo) error {
	payload, err := json.Marshal(movieInfo)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so nothing
// published after it returns is missed.
func (b *RedisMovieInfoBroker) Subscribe(ctx context.Context) (stream.Producer[*domain.MovieInfo], error) {
	sub := b.client.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	return &subscriptionProducer{sub: sub}, nil
}

// messageReceiver is the part of *redis.PubSub a subscription reads through.
type messageReceiver interface {
	ReceiveMessage(ctx context.Context) (*redis.Message, error)
	Close() error
}

// subscriptionProducer reads one message off the connection per Next call.
// Unread messages wait in the socket, so a slow consumer pushes back on
// Redis instead of losing messages.
type subscriptionProducer struct {
	sub messageReceiver
}

func (p *subscriptionProducer) Next(ctx context.Context) (*domain.MovieInfo, error) {
	// ReceiveMessage only watches the context deadline, so cancellation
	// has to unblock the read by closing the subscription.
	stop := context.AfterFunc(ctx, func() { p.sub.Close() })
	defer stop()

	msg, err := p.sub.ReceiveMessage(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, redis.ErrClosed) {
		return nil, errSubscriptionClosed
	}
	if err != nil {
		return nil, fmt.Errorf("receive movie info: %w", err)
	}

	var movieInfo domain.MovieInfo
	if err := json.Unmarshal([]byte(msg.Payload), &movieInfo); err != nil {
		return nil, fmt.Errorf("decode published movie info: %w", err)
	}

	return &movieInfo, nil
}

func (p *subscriptionProducer) Close() error {
	if err := p.sub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}

	return nil
}
