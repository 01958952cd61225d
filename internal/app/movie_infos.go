package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/movie-info-service/api"
	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/metinatakli/movie-info-service/internal/stream"
	appvalidator "github.com/metinatakli/movie-info-service/internal/validator"
	"github.com/oapi-codegen/runtime/types"
)

func (app *Application) CreateMovieInfo(w http.ResponseWriter, r *http.Request) {
	var input api.MovieInfoRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movieInfo := toDomainMovieInfo(input)

	err = appvalidator.Struct(app.validator, movieInfo)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.movieInfoRepo.Insert(r.Context(), movieInfo)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	// The record is stored at this point; a failed fan-out only affects
	// live subscribers.
	err = app.broker.Publish(r.Context(), movieInfo)
	if err != nil {
		app.logger.Warn("failed to publish movie info", "id", movieInfo.ID, "error", err)
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/movieinfos/%s", movieInfo.ID))

	err = app.writeJSON(w, http.StatusCreated, toMovieInfoResponse(movieInfo), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetMovieInfos streams every record, or the records of one year. Filtering
// by name returns a single object since names are unique.
func (app *Application) GetMovieInfos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Has("name") {
		app.getMovieInfoByName(w, r, query.Get("name"))
		return
	}

	var producer stream.Producer[*domain.MovieInfo]

	if query.Has("year") {
		year, err := strconv.Atoi(query.Get("year"))
		if err != nil {
			app.badRequestResponse(w, r, errors.New("year must be an integer"))
			return
		}

		producer = stream.FromSeq(app.movieInfoRepo.FindByYear(r.Context(), year))
	} else {
		producer = stream.FromSeq(app.movieInfoRepo.FindAll(r.Context()))
	}

	deliver(app, w, r, stream.Map(producer, toMovieInfoResponse), stream.NegotiateEncoding(r, stream.EncodingJSONArray))
}

func (app *Application) getMovieInfoByName(w http.ResponseWriter, r *http.Request, name string) {
	movieInfo, err := app.movieInfoRepo.FindByName(r.Context(), name)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieInfoResponse(movieInfo), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovieInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := movieInfoIDParam(r)
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	movieInfo, err := app.movieInfoRepo.FindByID(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieInfoResponse(movieInfo), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateMovieInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := movieInfoIDParam(r)
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	var input api.MovieInfoRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movieInfo := toDomainMovieInfo(input)
	movieInfo.ID = id

	err = appvalidator.Struct(app.validator, movieInfo)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.movieInfoRepo.Update(r.Context(), movieInfo)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieInfoResponse(movieInfo), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteMovieInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := movieInfoIDParam(r)
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	err := app.movieInfoRepo.Delete(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamMovieInfos pushes records added after the request arrived until the
// client disconnects.
func (app *Application) StreamMovieInfos(w http.ResponseWriter, r *http.Request) {
	producer, err := app.broker.Subscribe(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	deliverUnbounded(app, w, r, stream.Map(producer, toMovieInfoResponse))
}

// movieInfoIDParam returns the canonical form of the {id} URL parameter.
// Identifiers are UUIDs, so anything else cannot name a record.
func movieInfoIDParam(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}

	return id.String(), true
}

func toDomainMovieInfo(input api.MovieInfoRequest) *domain.MovieInfo {
	movieInfo := &domain.MovieInfo{
		Name: input.Name,
		Year: input.Year,
		Cast: input.Cast,
	}

	if input.ReleaseDate != nil {
		releaseDate := input.ReleaseDate.Time
		movieInfo.ReleaseDate = &releaseDate
	}

	return movieInfo
}

func toMovieInfoResponse(movieInfo *domain.MovieInfo) api.MovieInfoResponse {
	if movieInfo == nil {
		return api.MovieInfoResponse{}
	}

	resp := api.MovieInfoResponse{
		Id:   movieInfo.ID,
		Name: movieInfo.Name,
		Year: movieInfo.Year,
		Cast: movieInfo.Cast,
	}

	if movieInfo.ReleaseDate != nil {
		resp.ReleaseDate = &types.Date{Time: *movieInfo.ReleaseDate}
	}

	return resp
}
