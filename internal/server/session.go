package server

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/allenhichard/roletrando/internal/game"
	"github.com/allenhichard/roletrando/internal/protocol"
	"github.com/allenhichard/roletrando/internal/ranking"
)

// maxMessageSize bounds a single request frame.
const maxMessageSize = 1024

// Session runs the request/response state machine for one connection:
// awaiting-name, then playing, until the client terminates or the connection
// drops. It exclusively owns its game engine; the ranking store is the only
// shared state it touches.
type Session struct {
	conn    *websocket.Conn
	engine  *game.Engine
	ranking *ranking.Store
	logger  *log.Logger

	mu       sync.RWMutex
	username string

	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, engine *game.Engine, store *ranking.Store, logger *log.Logger) *Session {
	return &Session{
		conn:    conn,
		engine:  engine,
		ranking: store,
		logger:  logger.WithPrefix("session"),
	}
}

// Username returns the display name negotiated for this session, "" before
// set_username.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) setUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

// close releases the connection. Safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// run reads exactly one request per iteration and answers it before reading
// the next: strict request/response, no pipelining. Any transport error or
// malformed request ends this session only; other sessions and the ranking
// store are untouched.
func (s *Session) run() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)

	for {
		var req protocol.Request
		if err := s.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Error("Session aborted", "user", s.Username(), "error", err)
			}
			return
		}

		resp, stop := s.handle(&req)
		if resp != nil {
			if err := s.conn.WriteJSON(resp); err != nil {
				s.logger.Error("Failed to write response", "user", s.Username(), "error", err)
				return
			}
		}
		if stop {
			return
		}
	}
}

// handle maps one request to the engine or ranking call it names and builds
// the response. A nil response means the opcode carries none; stop means the
// session is over.
func (s *Session) handle(req *protocol.Request) (resp *protocol.Response, stop bool) {
	s.logger.Debug("Request", "op", req.Op, "user", s.Username())

	switch req.Op {
	case protocol.OpSetUsername:
		// The top-3 wire encoding reserves the separator, so a name carrying
		// it is a malformed request and terminal for the connection.
		if req.Payload == "" || strings.Contains(req.Payload, protocol.Top3Separator) {
			s.logger.Error("Rejected username", "name", req.Payload)
			return nil, true
		}
		s.setUsername(req.Payload)
		return nil, false

	case protocol.OpGetWord:
		return protocol.NewStringResponse(req.Op, s.engine.Word()), false

	case protocol.OpGetTip:
		return protocol.NewStringResponse(req.Op, s.engine.Tip()), false

	case protocol.OpIsRouletteAvail:
		return protocol.NewBoolResponse(req.Op, s.engine.RouletteAvailable()), false

	case protocol.OpGetRouletteValue:
		return protocol.NewIntResponse(req.Op, s.engine.SpinRoulette()), false

	case protocol.OpTryCharacter:
		if len(req.Payload) != 1 {
			s.logger.Error("Malformed try_character payload", "payload", req.Payload)
			return nil, true
		}
		return protocol.NewIntResponse(req.Op, s.engine.TryCharacter(req.Payload[0])), false

	case protocol.OpGetRoundNumber:
		return protocol.NewIntResponse(req.Op, s.engine.RoundNumber()), false

	case protocol.OpIsRoundFinished:
		return protocol.NewBoolResponse(req.Op, s.engine.IsRoundFinished()), false

	case protocol.OpHasNextRound:
		return protocol.NewBoolResponse(req.Op, s.engine.HasNextRound()), false

	case protocol.OpGetCurrentScore:
		return protocol.NewIntResponse(req.Op, s.engine.RoundScore()), false

	case protocol.OpAccumulatedScore:
		return protocol.NewIntResponse(req.Op, s.engine.AccumulatedScore()), false

	case protocol.OpNextRound:
		advanced := s.engine.NextRound()
		if advanced {
			// The leaderboard refresh is part of round advancement, not of
			// session teardown: a dropped connection later cannot lose it.
			s.ranking.RefreshIfGreater(s.Username(), s.engine.AccumulatedScore())
		}
		return protocol.NewBoolResponse(req.Op, advanced), false

	case protocol.OpGetUserHighscore:
		return protocol.NewIntResponse(req.Op, s.ranking.HighscoreOf(s.Username())), false

	case protocol.OpRankingTop3:
		top3 := s.ranking.Top3()
		entries := make([]protocol.RankingEntry, len(top3))
		for i, e := range top3 {
			entries[i] = protocol.RankingEntry{Username: e.Username, Score: e.Score}
		}
		return protocol.NewStringResponse(req.Op, protocol.EncodeTop3(entries)), false

	case protocol.OpTerminate:
		s.logger.Info("Session terminated", "user", s.Username())
		return nil, true
	}

	// Request decoding already rejects unknown opcodes; anything that still
	// lands here is terminal.
	s.logger.Error("Unhandled opcode", "op", req.Op)
	return nil, true
}
