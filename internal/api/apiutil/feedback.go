package apiutil

import (
	"fmt"
	"html"
	"net/http"

	"github.com/varchas/website/internal/api/htmx"
	"github.com/varchas/website/internal/submission"
)

const (
	feedbackOKClass    = "rounded-md bg-green-50 p-3 text-sm text-green-800"
	feedbackErrorClass = "rounded-md bg-red-50 p-3 text-sm text-red-800"
)

// WriteHTMLFeedback writes a one-line status message fragment.
func WriteHTMLFeedback(w http.ResponseWriter, status int, message string) {
	writeFeedback(w, status, feedbackOKClass, "status", message)
}

func WriteHTMLErrorFeedback(w http.ResponseWriter, status int, message string) {
	writeFeedback(w, status, feedbackErrorClass, "alert", message)
}

// WriteOutcome reports the result of a one-shot form. Backend failures are
// part of the outcome, so both results are a 200.
func WriteOutcome(w http.ResponseWriter, r *http.Request, outcome submission.Outcome) {
	if htmx.IsRequest(r) {
		if outcome.State == submission.Succeeded {
			WriteHTMLFeedback(w, http.StatusOK, outcome.Message)
		} else {
			WriteHTMLErrorFeedback(w, http.StatusOK, outcome.Message)
		}
		return
	}
	_ = WriteJSON(w, http.StatusOK, outcome)
}

// BuildFieldErrorsHTML lists validation messages for HTMX forms.
func BuildFieldErrorsHTML(errs map[string]string, order []string) string {
	out := ""
	for _, key := range order {
		if msg := errs[key]; msg != "" {
			out += fmt.Sprintf(`<li data-field="%s">%s</li>`, html.EscapeString(key), html.EscapeString(msg))
		}
	}
	if out == "" {
		return ""
	}
	return fmt.Sprintf(`<ul class="%s list-inside list-disc" role="alert">%s</ul>`, feedbackErrorClass, out)
}

func writeFeedback(w http.ResponseWriter, status int, class, role, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<div class="%s" role="%s">%s</div>`, class, role, html.EscapeString(message))
}
