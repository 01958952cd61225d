package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Encoding selects how elements are framed on an HTTP response.
type Encoding int

const (
	// EncodingJSONArray writes one JSON array, element by element.
	EncodingJSONArray Encoding = iota
	// EncodingNDJSON writes one JSON value per line.
	EncodingNDJSON
	// EncodingSSE writes server-sent events with a JSON data field.
	EncodingSSE
	// EncodingText writes each element with fmt, without separators.
	EncodingText
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
	ContentTypeSSE    = "text/event-stream"
	ContentTypeText   = "text/plain; charset=utf-8"
)

func (e Encoding) ContentType() string {
	switch e {
	case EncodingNDJSON:
		return ContentTypeNDJSON
	case EncodingSSE:
		return ContentTypeSSE
	case EncodingText:
		return ContentTypeText
	default:
		return ContentTypeJSON
	}
}

// NegotiateEncoding picks the encoding the request's Accept header ranks
// highest by q-value. Media types with q=0, wildcards and unknown media
// types are skipped; when nothing is left def is used.
func NegotiateEncoding(r *http.Request, def Encoding) Encoding {
	best, bestQ := def, 0.0

	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		enc, ok := encodingFor(mediaType)
		if !ok {
			continue
		}

		q := 1.0
		if v, ok := params["q"]; ok {
			q, err = strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
		}

		if q > bestQ {
			best, bestQ = enc, q
		}
	}

	return best
}

// NegotiateUnboundedEncoding is NegotiateEncoding for sequences that never
// complete. A JSON array would never be closed, so NDJSON is used instead.
func NegotiateUnboundedEncoding(r *http.Request) Encoding {
	enc := NegotiateEncoding(r, EncodingNDJSON)
	if enc == EncodingJSONArray {
		return EncodingNDJSON
	}

	return enc
}

func encodingFor(mediaType string) (Encoding, bool) {
	switch mediaType {
	case ContentTypeSSE:
		return EncodingSSE, true
	case ContentTypeNDJSON, "application/stream+json":
		return EncodingNDJSON, true
	case ContentTypeJSON:
		return EncodingJSONArray, true
	default:
		return 0, false
	}
}

// HTTPSink writes elements to an http.ResponseWriter and flushes after each
// one. The status line and headers are sent with the first element, or on
// Close for an empty sequence, so a fault before any element can still be
// reported with an error status.
//
// The server's write timeout is replaced by a deadline per write, so a
// stream may run indefinitely while a client that stops reading makes the
// next write fail.
type HTTPSink[T any] struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	enc          Encoding
	writeTimeout time.Duration
	started      bool
	count        int
}

func NewHTTPSink[T any](w http.ResponseWriter, enc Encoding) *HTTPSink[T] {
	return &HTTPSink[T]{
		w:   w,
		rc:  http.NewResponseController(w),
		enc: enc,
	}
}

// Started reports whether the response headers have been written.
func (s *HTTPSink[T]) Started() bool {
	return s.started
}

func (s *HTTPSink[T]) Encoding() Encoding {
	return s.enc
}

// WithWriteTimeout bounds every single write to d. Zero leaves writes
// without a deadline.
func (s *HTTPSink[T]) WithWriteTimeout(d time.Duration) *HTTPSink[T] {
	s.writeTimeout = d
	return s
}

func (s *HTTPSink[T]) extendDeadline() error {
	var deadline time.Time
	if s.writeTimeout > 0 {
		deadline = time.Now().Add(s.writeTimeout)
	}

	err := s.rc.SetWriteDeadline(deadline)
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	return nil
}

func (s *HTTPSink[T]) start() error {
	s.started = true

	if err := s.extendDeadline(); err != nil {
		return err
	}

	h := s.w.Header()
	h.Set("Content-Type", s.enc.ContentType())
	if s.enc == EncodingSSE || s.enc == EncodingNDJSON {
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Accel-Buffering", "no")
	}

	s.w.WriteHeader(http.StatusOK)

	if s.enc == EncodingJSONArray {
		if _, err := s.w.Write([]byte("[")); err != nil {
			return err
		}
	}

	return nil
}

func (s *HTTPSink[T]) Write(v T) error {
	if !s.started {
		if err := s.start(); err != nil {
			return err
		}
	}

	var buf []byte

	switch s.enc {
	case EncodingText:
		buf = fmt.Append(nil, v)
	default:
		js, err := json.Marshal(v)
		if err != nil {
			return err
		}

		switch s.enc {
		case EncodingJSONArray:
			if s.count > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, js...)
		case EncodingNDJSON:
			buf = append(js, '\n')
		case EncodingSSE:
			buf = fmt.Appendf(nil, "id: %d\ndata: %s\n\n", s.count, js)
		}
	}

	if err := s.extendDeadline(); err != nil {
		return err
	}

	if _, err := s.w.Write(buf); err != nil {
		return err
	}

	s.count++

	return s.flush()
}

func (s *HTTPSink[T]) Close() error {
	if !s.started {
		if err := s.start(); err != nil {
			return err
		}
	}

	if err := s.extendDeadline(); err != nil {
		return err
	}

	if s.enc == EncodingJSONArray {
		if _, err := s.w.Write([]byte("]")); err != nil {
			return err
		}
	}

	return s.flush()
}

// Fail reports err in-band when the encoding has a way to do so. It only
// applies to a response that has already started.
func (s *HTTPSink[T]) Fail(message string) error {
	if !s.started || s.enc != EncodingSSE {
		return nil
	}

	js, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}

	if err := s.extendDeadline(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", js); err != nil {
		return err
	}

	return s.flush()
}

func (s *HTTPSink[T]) flush() error {
	err := s.rc.Flush()
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	return nil
}
