package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/formrelay-api/internal/application/relay"
	"github.com/go-chi/chi/v5"
)

// maxRelayBody caps inbound submission size.
const maxRelayBody = 1 << 20 // 1 MiB

// RelayHandler handles the anonymous submission endpoint.
type RelayHandler struct {
	svc relay.Service
}

func NewRelayHandler(svc relay.Service) *RelayHandler {
	return &RelayHandler{svc: svc}
}

// Submit accepts a form post addressed to a tenant's clientId and relays
// it. The payload may be JSON, multipart form data or a urlencoded form;
// all fields are passed through opaquely.
func (h *RelayHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRelayBody)

	fields, err := decodePayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub := relay.Submission{
		ClientID: chi.URLParam(r, "clientId"),
		Origin:   r.Header.Get("Origin"),
		Fields:   fields,
	}
	if err := h.svc.Dispatch(r.Context(), sub); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Email sent successfully"})
}

// MethodNotAllowed serves a small help page to anyone opening the relay
// URL in a browser.
func (h *RelayHandler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_, _ = w.Write([]byte(methodNotAllowedPage))
}

func decodePayload(r *http.Request) (map[string]interface{}, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxRelayBody); err != nil {
			return nil, err
		}
		return formFields(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return formFields(r.PostForm), nil
	default:
		var fields map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
}

// formFields flattens form values: a single value stays a string, repeated
// fields become a list.
func formFields(values map[string][]string) map[string]interface{} {
	fields := make(map[string]interface{}, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			fields[k] = vs[0]
		} else {
			fields[k] = vs
		}
	}
	return fields
}

const methodNotAllowedPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Method Not Allowed</title>
</head>
<body>
  <h1>Method Not Allowed</h1>
  <p>This endpoint only accepts <code>POST</code> requests.</p>
  <p>Please send your data using JSON or FormData.</p>
</body>
</html>
`
