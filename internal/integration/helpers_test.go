package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp":   {},
	"requestId":   {},
	"movieInfoId": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// compareResponse compares a JSON object or array body with the expected
// document, ignoring generated values such as identifiers and timestamps.
func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	clean(actual)

	var expected any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	clean(expected)

	opts := cmpopts.SortSlices(func(a, b any) bool {
		return sortKey(a) < sortKey(b)
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func clean(v any) {
	switch v := v.(type) {
	case map[string]any:
		for k := range v {
			if _, ok := keysToIgnore[k]; ok {
				delete(v, k)
				continue
			}
			clean(v[k])
		}
	case []any:
		for _, e := range v {
			clean(e)
		}
	}
}

// sortKey orders array elements for comparison. The store does not
// guarantee row order, so records are compared by name.
func sortKey(v any) string {
	if m, ok := v.(map[string]any); ok {
		if name, ok := m["name"].(string); ok {
			return name
		}
	}

	js, _ := json.Marshal(v)
	return string(js)
}

func truncateMovieInfos(t testing.TB, db *pgxpool.Pool) {
	t.Helper()

	_, err := db.Exec(context.Background(), "TRUNCATE TABLE movie_infos")
	require.NoError(t, err)
}

func defaultTestMovieInfo() *domain.MovieInfo {
	releaseDate := TestMovieInfoReleaseDate

	return &domain.MovieInfo{
		Name:        TestMovieInfoName,
		Year:        TestMovieInfoYear,
		Cast:        append([]string(nil), TestMovieInfoCast...),
		ReleaseDate: &releaseDate,
	}
}

func insertTestMovieInfo(t testing.TB, app *TestApp, movieInfo *domain.MovieInfo) string {
	t.Helper()

	require.NoError(t, app.Repo.Insert(context.Background(), movieInfo))
	require.True(t, movieInfo.Persisted())

	return movieInfo.ID
}

func flushCache(t testing.TB, app *TestApp) {
	t.Helper()

	require.NoError(t, app.Redis.FlushDB(context.Background()).Err())
}
