package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"slices"

	"github.com/a-h/templ"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/htmx"
	"github.com/varchas/website/internal/forms"
)

const maxBodyBytes = 1 << 20

// HandlerError is an error with the HTTP status and public message it maps to.
type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields forms.Errors `json:"fields,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// DecodeInput reads a JSON body, or urlencoded form fields as sent by HTMX.
// Form fields are matched to the json tags of dst.
func DecodeInput(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return DecodeJSON(r, dst)
	}
	return DecodeForm(r, dst)
}

func DecodeForm(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	values := make(map[string]any, len(r.PostForm))
	for key, vals := range r.PostForm {
		if len(vals) == 1 {
			values[key] = vals[0]
			continue
		}
		values[key] = vals
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError reports err as JSON, or as plain text to HTMX. Errors that are not
// a HandlerError become a 500 and are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var handlerErr HandlerError
	if !errors.As(err, &handlerErr) {
		log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled handler error")
		handlerErr = HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
	}

	if htmx.IsRequest(r) {
		http.Error(w, handlerErr.Message, handlerErr.Status)
		return
	}
	if err := WriteJSON(w, handlerErr.Status, errorResponse{Error: handlerErr.Message}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write error response")
	}
}

// WriteValidationErrors answers 422 with the field messages. HTMX gets the
// message list as a 200 so it is swapped in.
func WriteValidationErrors(w http.ResponseWriter, r *http.Request, errs forms.Errors) {
	if htmx.IsRequest(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, BuildFieldErrorsHTML(errs, slices.Sorted(maps.Keys(errs))))
		return
	}
	if err := WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: errs}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write validation response")
	}
}

// RenderHTML renders component into a buffer first so a template failure
// still produces a clean 500.
func RenderHTML(ctx context.Context, w http.ResponseWriter, status int, component templ.Component, headers map[string]string) bool {
	logger := log.Ctx(ctx)
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		logger.Error().Err(err).Msg("Failed to render component")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error().Err(err).Msg("Failed to write response")
	}
	return true
}
