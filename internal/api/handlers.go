package api

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/MrWong99/phrasecoach/internal/flashcards"
	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/internal/phrases"
	"github.com/MrWong99/phrasecoach/internal/practice"
	"github.com/MrWong99/phrasecoach/pkg/compare"
)

// defaultHistoryLimit applies when /v1/history has no limit parameter.
const defaultHistoryLimit = 50

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := req.utterance()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ev.Review(r.Context(), req.Target, u))
}

type batchRequest struct {
	Items []utteranceRequest `json:"items"`
}

type batchResponse struct {
	Reviews []compare.Review `json:"reviews"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Items) > s.maxBatch {
		s.writeError(w, r, fmt.Errorf("%w: batch has %d items, limit is %d", errBadRequest, len(req.Items), s.maxBatch))
		return
	}
	items := make([]practice.Item, len(req.Items))
	for i, it := range req.Items {
		u, err := it.utterance()
		if err != nil {
			s.writeError(w, r, fmt.Errorf("item %d: %w", i, err))
			return
		}
		items[i] = practice.Item{Target: it.Target, Utterance: u}
	}
	reviews, err := s.ev.Batch(r.Context(), items, s.batchLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Reviews: reviews})
}

type phraseList struct {
	Phrases []string `json:"phrases"`
	Count   int      `json:"count"`
}

func (s *Server) handleListPhrases(w http.ResponseWriter, r *http.Request) {
	list, err := s.phrases.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, phraseList{Phrases: list, Count: len(list)})
}

type phraseRequest struct {
	Phrase string `json:"phrase"`
}

func (s *Server) handleAddPhrase(w http.ResponseWriter, r *http.Request) {
	var req phraseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.phrases.Add(r.Context(), req.Phrase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, phraseRequest{Phrase: added})
}

func (s *Server) handleImportPhrases(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	n, err := phrases.Import(r.Context(), s.phrases, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "phrases imported", "count", n)
	s.handleListPhrases(w, r)
}

func (s *Server) handleRemovePhrase(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.phrases.Remove(r.Context(), index); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportPhrases(w http.ResponseWriter, r *http.Request) {
	list, err := s.phrases.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := phrases.Encode(&buf, list); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="phrases.json"`)
	_, _ = w.Write(buf.Bytes())
}

type attemptRequest struct {
	Spoken     string   `json:"spoken"`
	Confidence *float64 `json:"confidence,omitempty"`
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := utteranceRequest{Spoken: req.Spoken, Confidence: req.Confidence}.utterance()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.phrases.Get(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rv, err := s.ev.Attempt(r.Context(), target, u)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("record attempt: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

type historyResponse struct {
	Attempts []history.Attempt `json:"attempts"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = n
	}
	attempts, err := s.ev.Recorder().Recent(r.Context(), r.URL.Query().Get("target"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []history.Attempt{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Attempts: attempts})
}

type cardsResponse struct {
	Cards []flashcards.Card `json:"cards"`
	Count int               `json:"count"`
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	deck := flashcards.NewDeck(s.cards)
	if shuffle, _ := strconv.ParseBool(r.URL.Query().Get("shuffle")); shuffle {
		deck.Shuffle(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	cards := deck.Cards()
	writeJSON(w, http.StatusOK, cardsResponse{Cards: cards, Count: len(cards)})
}

type lookupResponse struct {
	Card       flashcards.Card `json:"card"`
	Similarity float64         `json:"similarity"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		s.writeError(w, r, fmt.Errorf("%w: term is required", errBadRequest))
		return
	}
	card, sim, ok := flashcards.NewDeck(s.cards).Lookup(term)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("no card matches %q", term)})
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Card: card, Similarity: sim})
}

// pathIndex parses the {index} path segment.
func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: index must be an integer", errBadRequest)
	}
	return index, nil
}
