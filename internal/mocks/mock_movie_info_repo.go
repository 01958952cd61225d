package mocks

import (
	"context"
	"iter"

	"github.com/metinatakli/movie-info-service/internal/domain"
)

type MockMovieInfoRepo struct {
	domain.MovieInfoRepository
	InsertFunc     func(ctx context.Context, movieInfo *domain.MovieInfo) error
	FindByIDFunc   func(ctx context.Context, id string) (*domain.MovieInfo, error)
	FindByNameFunc func(ctx context.Context, name string) (*domain.MovieInfo, error)
	FindByYearFunc func(ctx context.Context, year int) iter.Seq2[*domain.MovieInfo, error]
	FindAllFunc    func(ctx context.Context) iter.Seq2[*domain.MovieInfo, error]
	UpdateFunc     func(ctx context.Context, movieInfo *domain.MovieInfo) error
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockMovieInfoRepo) Insert(ctx context.Context, movieInfo *domain.MovieInfo) error {
	return m.InsertFunc(ctx, movieInfo)
}

func (m *MockMovieInfoRepo) FindByID(ctx context.Context, id string) (*domain.MovieInfo, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *MockMovieInfoRepo) FindByName(ctx context.Context, name string) (*domain.MovieInfo, error) {
	return m.FindByNameFunc(ctx, name)
}

func (m *MockMovieInfoRepo) FindByYear(ctx context.Context, year int) iter.Seq2[*domain.MovieInfo, error] {
	return m.FindByYearFunc(ctx, year)
}

func (m *MockMovieInfoRepo) FindAll(ctx context.Context) iter.Seq2[*domain.MovieInfo, error] {
	return m.FindAllFunc(ctx)
}

func (m *MockMovieInfoRepo) Update(ctx context.Context, movieInfo *domain.MovieInfo) error {
	return m.UpdateFunc(ctx, movieInfo)
}

func (m *MockMovieInfoRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// Seq turns fixed records into a sequence; a non-nil err is yielded after them.
func Seq(err error, movieInfos ...*domain.MovieInfo) iter.Seq2[*domain.MovieInfo, error] {
	return func(yield func(*domain.MovieInfo, error) bool) {
		for _, m := range movieInfos {
			if !yield(m, nil) {
				return
			}
		}

		if err != nil {
			yield(nil, err)
		}
	}
}
