// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/glyphmark/pkg/errutil"
)

// Request limits for the HTTP handler.
const (
	MaxRequestBytes = 1 << 20
	MaxRequestLines = 1024
)

// CodeRateLimited marks a request rejected by the rate limiter.
const CodeRateLimited = "RATE_LIMITED"

// ErrorResponse is the body of a failed render request.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var contentTypes = map[string]string{
	FormatJSON:  "application/json",
	FormatYAML:  "application/yaml",
	FormatTable: "text/plain; charset=utf-8",
	FormatANSI:  "text/plain; charset=utf-8",
}

// Handler serves POST requests carrying a JSON Request body. The output
// format defaults to json and may be chosen with ?format=.
type Handler struct {
	engine *Engine
}

// NewHandler creates a handler rendering with engine.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// ServeHTTP implements http.Handler. Every response carries an X-Request-Id.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := ulid.Make().String()
	w.Header().Set("X-Request-Id", requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	contentType, ok := contentTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, CodeUnknownFormat, "unknown output format "+format)
		return
	}

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, CodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Lines) > MaxRequestLines {
		writeError(w, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "too many lines")
		return
	}
	req.Source = "http"
	req.ID = requestID
	logger := slog.Default().With("request_id", requestID)

	res, err := h.engine.Render(r.Context(), req)
	if err != nil {
		errutil.LogError(logger, "render request failed", err)
		status := http.StatusInternalServerError
		code := "INTERNAL"
		if oopsErr, ok := oops.AsOops(err); ok {
			if c, ok := oopsErr.Code().(string); ok && c == CodeInvalidRequest {
				status, code = http.StatusBadRequest, c
			}
		}
		writeError(w, status, code, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, res); err != nil {
		errutil.LogError(logger, "render encode failed", err)
		writeError(w, http.StatusInternalServerError, CodeOutputFailed, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Error: msg})
}
