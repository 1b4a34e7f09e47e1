package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/internal/practice"
	"github.com/MrWong99/phrasecoach/pkg/compare"
)

// wsReadLimit bounds a single practice message.
const wsReadLimit = 64 << 10

// Practice message actions.
const (
	actionAttempt = "attempt"
	actionNext    = "next"
	actionPrev    = "prev"
)

// Practice reply types.
const (
	replyState  = "state"
	replyReview = "review"
	replyError  = "error"
)

// wsRequest is one client message on the practice socket. An empty Action
// means attempt. For attempts, Target wins over Index, and with neither the
// session's current phrase is used.
type wsRequest struct {
	Action     string   `json:"action,omitempty"`
	Target     string   `json:"target,omitempty"`
	Index      *int     `json:"index,omitempty"`
	Spoken     string   `json:"spoken"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// wsReply is one server message on the practice socket.
type wsReply struct {
	Type   string          `json:"type"`
	Index  int             `json:"index"`
	Count  int             `json:"count"`
	Phrase string          `json:"phrase,omitempty"`
	Review *compare.Review `json:"review,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// handlePractice runs a live practice session over a WebSocket. The session
// works on a snapshot of the phrase list taken at connect time. Bad messages
// are answered with an error reply; the connection stays open.
func (s *Server) handlePractice(w http.ResponseWriter, r *http.Request) {
	list, err := s.phrases.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.logger.WarnContext(r.Context(), "practice: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)

	log := observe.Logger(ctx, s.logger)
	sess := practice.NewSession(s.ev, list)
	log.Info("practice session started", "phrases", sess.Len())

	if err := wsjson.Write(ctx, conn, stateReply(sess)); err != nil {
		return
	}
	for {
		var req wsRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
				log.Info("practice session closed")
			case errors.Is(err, context.Canceled):
			default:
				log.Warn("practice session ended", "err", err)
			}
			return
		}
		if err := wsjson.Write(ctx, conn, s.practiceStep(ctx, sess, req)); err != nil {
			log.Warn("practice: write failed", "err", err)
			return
		}
	}
}

// practiceStep applies one client message to sess and builds the reply.
func (s *Server) practiceStep(ctx context.Context, sess *practice.Session, req wsRequest) wsReply {
	switch req.Action {
	case actionNext:
		sess.Next()
		return stateReply(sess)
	case actionPrev:
		sess.Prev()
		return stateReply(sess)
	case "", actionAttempt:
	default:
		return errorReply(sess, fmt.Errorf("unknown action %q", req.Action))
	}

	u, err := utteranceRequest{Spoken: req.Spoken, Confidence: req.Confidence}.utterance()
	if err != nil {
		return errorReply(sess, err)
	}

	var rv compare.Review
	switch {
	case req.Target != "":
		rv, err = s.ev.Attempt(ctx, req.Target, u)
	case req.Index != nil:
		rv, err = sess.Attempt(ctx, *req.Index, u)
	default:
		rv, err = sess.Attempt(ctx, sess.Index(), u)
	}
	if errors.Is(err, practice.ErrNoPhrase) {
		return errorReply(sess, err)
	}

	reply := stateReply(sess)
	reply.Type = replyReview
	if req.Target != "" {
		reply.Phrase = req.Target
	}
	reply.Review = &rv
	if err != nil {
		reply.Error = fmt.Sprintf("record attempt: %v", err)
	}
	return reply
}

func stateReply(sess *practice.Session) wsReply {
	phrase, _ := sess.Current()
	return wsReply{Type: replyState, Index: sess.Index(), Count: sess.Len(), Phrase: phrase}
}

func errorReply(sess *practice.Session, err error) wsReply {
	reply := stateReply(sess)
	reply.Type = replyError
	reply.Error = err.Error()
	return reply
}
