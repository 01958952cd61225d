package mocks

import (
	"context"

	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/metinatakli/movie-info-service/internal/stream"
)

type MockMovieInfoBroker struct {
	PublishFunc   func(ctx context.Context, movieInfo *domain.MovieInfo) error
	SubscribeFunc func(ctx context.Context) (stream.Producer[*domain.MovieInfo], error)
}

func (m *MockMovieInfoBroker) Publish(ctx context.Context, movieInfo *domain.MovieInfo) error {
	if m.PublishFunc == nil {
		return nil
	}

	return m.PublishFunc(ctx, movieInfo)
}

func (m *MockMovieInfoBroker) Subscribe(ctx context.Context) (stream.Producer[*domain.MovieInfo], error) {
	return m.SubscribeFunc(ctx)
}
