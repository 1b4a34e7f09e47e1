package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrWong99/phrasecoach/internal/phrases"
	"github.com/MrWong99/phrasecoach/internal/practice"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

// errBadRequest marks errors caused by malformed client input.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as {"error": "..."}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, phrases.ErrNotFound), errors.Is(err, practice.ErrNoPhrase):
		return http.StatusNotFound
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, phrases.ErrEmptyPhrase),
		errors.Is(err, phrases.ErrNotArray),
		errors.Is(err, phrases.ErrNotString),
		errors.Is(err, types.ErrConfidenceRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// utteranceRequest is the recognizer output a client submits.
type utteranceRequest struct {
	Target     string             `json:"target"`
	Spoken     string             `json:"spoken"`
	Confidence *float64           `json:"confidence,omitempty"`
	Words      []types.WordDetail `json:"words,omitempty"`
}

// utterance converts the request and validates confidence values.
func (u utteranceRequest) utterance() (types.Utterance, error) {
	ut := types.Utterance{Text: u.Spoken, Confidence: u.Confidence, Words: u.Words}
	if err := ut.Validate(); err != nil {
		return types.Utterance{}, err
	}
	return ut, nil
}
