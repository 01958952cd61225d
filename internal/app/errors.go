package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/movie-info-service/api"
	"github.com/metinatakli/movie-info-service/internal/domain"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrNotFound           = "The requested resource not found"
	ErrMethodNotAllowed   = "The %s method is not supported for this resource"
	ErrFailedValidation   = "One or more fields are invalid"
	ErrDuplicateMovieInfo = "A movie info with the same name already exists"
	ErrEditConflict       = "Unable to update the record due to an edit conflict, please try again"
	ErrStreamInterrupted  = "The stream was interrupted by a server error"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf(ErrMethodNotAllowed, r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusConflict, message)
}

// failedValidationResponse renders a *domain.ValidationError as a 422. Any
// other error is treated as a server error.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		app.serverErrorResponse(w, r, err)
		return
	}

	validationErrors := make([]api.ValidationError, len(validationErr.Errors))
	for i, fe := range validationErr.Errors {
		validationErrors[i] = api.ValidationError{
			Field: fe.Field,
			Issue: fe.Message,
		}
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: validationErrors,
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// storeErrorResponse maps repository errors to responses.
func (app *Application) storeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrDuplicateName):
		app.conflictResponse(w, r, ErrDuplicateMovieInfo)
	case errors.Is(err, domain.ErrEditConflict):
		app.conflictResponse(w, r, ErrEditConflict)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

type streamReporter interface {
	Started() bool
	Fail(message string) error
}

// streamFaultResponse ends a response whose producer failed. The failure is
// already logged with the delivery outcome. Before the first element it is an
// ordinary 500; afterwards the status is already on the wire, so the fault is
// reported in-band where possible and the connection is aborted to make the
// truncation visible to the client.
func (app *Application) streamFaultResponse(w http.ResponseWriter, r *http.Request, sink streamReporter, err error) {
	if !sink.Started() {
		app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	if err := sink.Fail(ErrStreamInterrupted); err != nil {
		app.logError(r, err)
	}

	panic(http.ErrAbortHandler)
}
