package internal

import (
	"bytes"
	"maps"
	"net/http"
	"strconv"
)

// Response is a fully buffered HTTP response.
// It implements http.ResponseWriter, so any http.Handler can write into it.
type Response struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		header: make(http.Header),
		status: status,
	}
}

// Text creates a plain text response.
func Text(status int, body string) *Response {
	r := NewResponse(status)
	r.header.Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = r.body.WriteString(body)
	return r
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	r := NewResponse(status)
	r.header.Set("Content-Type", "text/html; charset=utf-8")
	_, _ = r.body.WriteString(body)
	return r
}

// Redirect creates a redirect response to url.
func Redirect(status int, url string) *Response {
	r := NewResponse(status)
	r.header.Set("Location", url)
	return r
}

// IsResponse reports whether v is a non-nil *Response.
// It is the predicate bootstrap, dispatch and render are triggered with.
func IsResponse(v any) bool {
	r, ok := v.(*Response)
	return ok && r != nil
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.header
}

// WriteHeader records the status code. Only the first call has effect,
// matching http.ResponseWriter semantics.
func (r *Response) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
}

// Write appends to the body.
func (r *Response) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}

// WriteString appends a string to the body.
func (r *Response) WriteString(s string) (int, error) {
	r.wroteHeader = true
	return r.body.WriteString(s)
}

// StatusCode returns the status code.
func (r *Response) StatusCode() int {
	return r.status
}

// SetStatus overrides the status code.
func (r *Response) SetStatus(code int) *Response {
	r.status = code
	r.wroteHeader = true
	return r
}

// Body returns the buffered body.
func (r *Response) Body() []byte {
	return r.body.Bytes()
}

// BodyString returns the buffered body as a string.
func (r *Response) BodyString() string {
	return r.body.String()
}

// Reset clears the body, keeping status and headers.
func (r *Response) Reset() {
	r.body.Reset()
}

// WriteTo emits the response to a transport writer.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	maps.Copy(h, r.header)
	if h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(r.body.Len()))
	}
	w.WriteHeader(r.status)
	_, err := w.Write(r.body.Bytes())
	return err
}

// mergeHeaders copies headers from src that dst does not already have.
func mergeHeaders(dst, src http.Header) {
	for k, vs := range src {
		if _, ok := dst[k]; ok {
			continue
		}
		dst[k] = append([]string(nil), vs...)
	}
}

// View keys recognized by the renderer.
const (
	ViewTemplateFile = "templatefile"
	ViewStatusCode   = "statuscode"
)

// View is controller output destined for a template.
// "templatefile" names the template; "statuscode" sets the response status.
type View map[string]any

// TemplateFile returns the template name, or "".
func (v View) TemplateFile() string {
	s, _ := v[ViewTemplateFile].(string)
	return s
}

// StatusCode returns the requested status, defaulting to 200.
func (v View) StatusCode() int {
	switch code := v[ViewStatusCode].(type) {
	case int:
		return code
	case int64:
		return int(code)
	case float64:
		return int(code)
	case string:
		if n, err := strconv.Atoi(code); err == nil {
			return n
		}
	}
	return http.StatusOK
}
