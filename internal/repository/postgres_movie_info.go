package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-info-service/internal/domain"
)

const dateLayout = "2006-01-02"

// movieInfoDocument is the stored shape of a MovieInfo. The identifier lives
// in its own column and is not part of the document.
type movieInfoDocument struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Cast        []string `json:"cast"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
}

func toDocument(m *domain.MovieInfo) ([]byte, error) {
	doc := movieInfoDocument{
		Name: m.Name,
		Year: m.Year,
		Cast: m.Cast,
	}

	if doc.Cast == nil {
		doc.Cast = []string{}
	}

	if m.ReleaseDate != nil {
		doc.ReleaseDate = m.ReleaseDate.Format(dateLayout)
	}

	return json.Marshal(doc)
}

func fromDocument(id string, raw []byte) (*domain.MovieInfo, error) {
	var doc movieInfoDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode movie info %s: %w", id, err)
	}

	m := &domain.MovieInfo{
		ID:   id,
		Name: doc.Name,
		Year: doc.Year,
		Cast: doc.Cast,
	}

	if doc.ReleaseDate != "" {
		releaseDate, err := time.Parse(dateLayout, doc.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("decode movie info %s release date: %w", id, err)
		}
		m.ReleaseDate = &releaseDate
	}

	return m, nil
}

type PostgresMovieInfoRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieInfoRepository(db *pgxpool.Pool) *PostgresMovieInfoRepository {
	return &PostgresMovieInfoRepository{
		db: db,
	}
}

func (p *PostgresMovieInfoRepository) Insert(ctx context.Context, movieInfo *domain.MovieInfo) error {
	doc, err := toDocument(movieInfo)
	if err != nil {
		return err
	}

	query := `INSERT INTO movie_infos (doc)
		VALUES ($1)
		RETURNING id::text`

	err = p.db.QueryRow(ctx, query, doc).Scan(&movieInfo.ID)
	if err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (p *PostgresMovieInfoRepository) FindByID(ctx context.Context, id string) (*domain.MovieInfo, error) {
	query := `SELECT id::text, doc FROM movie_infos WHERE id = $1::uuid`

	return p.findOne(ctx, query, id)
}

func (p *PostgresMovieInfoRepository) FindByName(ctx context.Context, name string) (*domain.MovieInfo, error) {
	query := `SELECT id::text, doc FROM movie_infos WHERE doc->>'name' = $1`

	return p.findOne(ctx, query, name)
}

func (p *PostgresMovieInfoRepository) FindByYear(ctx context.Context, year int) iter.Seq2[*domain.MovieInfo, error] {
	query := `SELECT id::text, doc FROM movie_infos WHERE (doc->>'year')::int = $1`

	return p.findMany(ctx, query, year)
}

func (p *PostgresMovieInfoRepository) FindAll(ctx context.Context) iter.Seq2[*domain.MovieInfo, error] {
	query := `SELECT id::text, doc FROM movie_infos`

	return p.findMany(ctx, query)
}

func (p *PostgresMovieInfoRepository) Update(ctx context.Context, movieInfo *domain.MovieInfo) error {
	doc, err := toDocument(movieInfo)
	if err != nil {
		return err
	}

	query := `UPDATE movie_infos SET doc = $2 WHERE id = $1::uuid`

	tag, err := p.db.Exec(ctx, query, movieInfo.ID, doc)
	if err != nil {
		return mapWriteError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresMovieInfoRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM movie_infos WHERE id = $1::uuid`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresMovieInfoRepository) findOne(ctx context.Context, query string, args ...any) (*domain.MovieInfo, error) {
	var (
		id  string
		raw []byte
	)

	err := p.db.QueryRow(ctx, query, args...).Scan(&id, &raw)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domain.ErrRecordNotFound
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation:
			return nil, domain.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return fromDocument(id, raw)
}

// findMany returns a sequence that runs the query when ranged over and scans
// one row per iteration, so rows are never buffered as a whole.
func (p *PostgresMovieInfoRepository) findMany(ctx context.Context, query string, args ...any) iter.Seq2[*domain.MovieInfo, error] {
	return func(yield func(*domain.MovieInfo, error) bool) {
		rows, err := p.db.Query(ctx, query, args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id  string
				raw []byte
			)

			if err := rows.Scan(&id, &raw); err != nil {
				yield(nil, err)
				return
			}

			movieInfo, err := fromDocument(id, raw)
			if !yield(movieInfo, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.ErrDuplicateName
		case pgerrcode.InvalidTextRepresentation:
			return domain.ErrRecordNotFound
		case pgerrcode.SerializationFailure:
			return domain.ErrEditConflict
		}
	}

	return err
}
