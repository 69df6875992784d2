package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/hpungsan/abacus/internal/errors"
)

// maxBodyBytes caps POST bodies. Expressions are short; anything this large
// is not a calculator entry.
const maxBodyBytes = 1 << 20

// messageBody is the error payload: {"message": "..."}.
type messageBody struct {
	Message string `json:"message"`
}

// createRequest is the POST /api/calculations body. Pointer fields make
// presence explicit: absent and null both decode to nil.
type createRequest struct {
	Expression *string `json:"expression"`
	Result     *string `json:"result"`
}

// decodeCreateRequest decodes and validates a create body. Any failure is an
// invalid-input error.
func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*createRequest, error) {
	if r.Body == nil {
		return nil, errors.NewInvalidInput("missing body")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var req createRequest
	if err := dec.Decode(&req); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewInvalidInput("missing body")
		}
		return nil, errors.NewInvalidInput(err.Error())
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return nil, errors.NewInvalidInput("unexpected data after JSON body")
	}

	switch {
	case req.Expression == nil || *req.Expression == "":
		return nil, errors.NewInvalidInput("expression is required")
	case req.Result == nil || *req.Result == "":
		return nil, errors.NewInvalidInput("result is required")
	}

	return &req, nil
}

// renderError writes {"message": ...} with the error's status. Internal
// failures are logged with their cause and reported generically.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	aErr := errors.From(err)

	entry := requestLogger(h.log, r).WithField("code", aErr.Code)
	if aErr.Code == errors.ErrInternal {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithField("details", aErr.Details).Debug("request rejected")
	}

	renderJSON(w, aErr.Status, messageBody{Message: aErr.Message})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}
