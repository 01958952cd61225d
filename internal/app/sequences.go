package app

import (
	"context"
	"net/http"

	"github.com/metinatakli/movie-info-service/internal/stream"
)

// The bounded demo sequence is 11, 21, 31.
const (
	fluxStart = 11
	fluxStep  = 10
	fluxCount = 3

	monoValue = "hello-world-beginners"
)

func (app *Application) GetFlux(w http.ResponseWriter, r *http.Request) {
	producer := stream.Arithmetic(fluxStart, fluxStep, fluxCount)
	deliver(app, w, r, producer, stream.NegotiateEncoding(r, stream.EncodingJSONArray))
}

func (app *Application) GetMono(w http.ResponseWriter, r *http.Request) {
	deliver(app, w, r, stream.Just(monoValue), stream.EncodingText)
}

func (app *Application) GetStream(w http.ResponseWriter, r *http.Request) {
	producer := stream.Interval(app.config.StreamInterval)
	deliverUnbounded(app, w, r, producer)
}

// deliver runs a finite producer against the response. Server shutdown
// waits for it to complete. If the delivery is cut short after the response
// has started, the connection is aborted so the client cannot take the
// partial body for a complete one.
func deliver[T any](app *Application, w http.ResponseWriter, r *http.Request, producer stream.Producer[T], enc stream.Encoding) {
	sink, delivery, err := runDelivery(r.Context(), app, w, r, producer, enc)
	if err != nil {
		app.streamFaultResponse(w, r, sink, err)
		return
	}

	if delivery.State() == stream.StateCancelled && r.Context().Err() == nil && sink.Started() {
		panic(http.ErrAbortHandler)
	}
}

// deliverUnbounded runs a producer that only ends when the client leaves or
// the server shuts down.
func deliverUnbounded[T any](app *Application, w http.ResponseWriter, r *http.Request, producer stream.Producer[T]) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stop := context.AfterFunc(app.streamsCtx, cancel)
	defer stop()

	sink, _, err := runDelivery(ctx, app, w, r, producer, stream.NegotiateUnboundedEncoding(r))
	if err != nil {
		app.streamFaultResponse(w, r, sink, err)
	}
}

// runDelivery writes producer to the response and logs one line with the
// outcome.
func runDelivery[T any](
	ctx context.Context,
	app *Application,
	w http.ResponseWriter,
	r *http.Request,
	producer stream.Producer[T],
	enc stream.Encoding) (*stream.HTTPSink[T], *stream.Delivery[T], error) {

	sink := stream.NewHTTPSink[T](w, enc).WithWriteTimeout(app.config.StreamWriteTimeout)
	delivery := stream.NewDelivery[T](producer, sink)

	err := delivery.Run(ctx)

	logger := app.logger.With(
		"method", r.Method,
		"uri", r.URL.RequestURI(),
		"outcome", delivery.State().String(),
		"emitted", delivery.Emitted(),
		"duration", delivery.Elapsed(),
	)

	switch delivery.State() {
	case stream.StateCompleted:
		logger.Info("stream completed")
	case stream.StateCancelled:
		logger.Debug("stream cancelled")
	case stream.StateFailed:
		logger.Error("stream failed", "error", err)
	}

	return sink, delivery, err
}
