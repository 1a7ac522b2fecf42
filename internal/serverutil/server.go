package serverutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/logger"
)

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

// AccessLogMiddleware logs every request and tags its context with a
// request id, so handler logs can be correlated.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.Ctx(r.Context(), slog.String("request_id", uuid.NewString()))
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
		start := time.Now()

		writer := &respCodeWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(writer, r)

		slog.InfoContext(ctx, "request completed",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", time.Since(start),
			"status_code", writer.code,
		)
	})
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that returns an error.
type HandlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	tcErr := &tcerrs.Error{}
	if !errors.As(err, &tcErr) || tcErr.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "error handling request", "error", err)
	}
	if tcErr.Kind == tcerrs.Other && tcErr.Status == 0 {
		tcErr = tcerrs.E(http.StatusInternalServerError, "internal server error")
	}

	if err := WriteJSON(w, tcErr.Status, tcErr); err != nil {
		slog.ErrorContext(r.Context(), "error writing response", "error", err)
	}
}

// ErrRouter is a newtype around a mux router that allows attaching handlers that return errors.
type ErrRouter struct {
	*mux.Router
}

func (r ErrRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}

// Int64Var reads a numeric path variable.
func Int64Var(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, tcerrs.E(tcerrs.BadRequest, tcerrs.Detail{Field: name, Error: "must be an integer"}, fmt.Sprintf("invalid %s", name))
	}

	return v, nil
}

// IntQuery reads an optional numeric query parameter, falling back to def
// when it is absent.
func IntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, tcerrs.E(tcerrs.BadRequest, tcerrs.Detail{Field: name, Error: "must be an integer"}, fmt.Sprintf("invalid %s", name))
	}

	return v, nil
}
