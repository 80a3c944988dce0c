package http

import (
	"bytes"
	"html/template"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

var templateFuncs = template.FuncMap{
	"formatID": core.FormatID,
}

// responseBuilder provides a small fluent API for the three kinds of
// responses the handlers send: rendered pages, redirects and plain text.
type responseBuilder struct {
	w          http.ResponseWriter
	r          *http.Request
	statusCode int
}

func newResponse(w http.ResponseWriter, r *http.Request) *responseBuilder {
	return &responseBuilder{w: w, r: r, statusCode: http.StatusOK}
}

// Status sets the status code used by Render.
func (b *responseBuilder) Status(code int) *responseBuilder {
	b.statusCode = code
	return b
}

// Render executes the named template into a buffer first, so a failing
// template never leaves a half-written page behind.
func (b *responseBuilder) Render(templates *template.Template, name string, data any) {
	ctx := b.r.Context()
	if templates == nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", applog.FieldTemplate, name)
		b.Text(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldTemplate, name,
			applog.FieldError, err)
		b.Text(http.StatusInternalServerError, "Internal server error")
		return
	}

	b.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	b.w.WriteHeader(b.statusCode)
	_, _ = b.w.Write(buf.Bytes())
}

// Redirect answers with 303 See Other so the browser follows up with a GET.
func (b *responseBuilder) Redirect(location string) {
	http.Redirect(b.w, b.r, location, http.StatusSeeOther)
}

// Text writes a plain text body with the given status.
func (b *responseBuilder) Text(code int, msg string) {
	b.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	b.w.Header().Set("X-Content-Type-Options", "nosniff")
	b.w.WriteHeader(code)
	_, _ = b.w.Write([]byte(msg))
}
