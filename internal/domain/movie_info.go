package domain

import (
	"context"
	"iter"
	"time"

	"github.com/metinatakli/movie-info-service/internal/stream"
)

// MovieInfo is the movie metadata record. ID is empty until the record is
// persisted and never changes afterwards.
type MovieInfo struct {
	ID          string     `json:"movieInfoId,omitempty"`
	Name        string     `json:"name" validate:"notblank"`
	Year        int        `json:"year" validate:"gt=0"`
	Cast        []string   `json:"cast" validate:"required,dive,notblank"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
}

// Persisted reports whether the store has assigned an identifier.
func (m *MovieInfo) Persisted() bool {
	return m.ID != ""
}

type MovieInfoRepository interface {
	Insert(ctx context.Context, movieInfo *MovieInfo) error
	FindByID(ctx context.Context, id string) (*MovieInfo, error)
	FindByName(ctx context.Context, name string) (*MovieInfo, error)
	// FindByYear and FindAll run their query each time the returned sequence
	// is ranged over. Ordering is whatever the store returns.
	FindByYear(ctx context.Context, year int) iter.Seq2[*MovieInfo, error]
	FindAll(ctx context.Context) iter.Seq2[*MovieInfo, error]
	Update(ctx context.Context, movieInfo *MovieInfo) error
	Delete(ctx context.Context, id string) error
}

// MovieInfoBroker fans newly added records out to live subscribers.
type MovieInfoBroker interface {
	Publish(ctx context.Context, movieInfo *MovieInfo) error
	Subscribe(ctx context.Context) (stream.Producer[*MovieInfo], error)
}
