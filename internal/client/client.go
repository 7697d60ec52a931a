// Package client implements the game-side client: a synchronous,
// one-request-in-flight wrapper over the wire protocol, with one method per
// opcode.
package client

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/allenhichard/roletrando/internal/protocol"
)

// ErrOutOfOrder is returned when a response does not echo the opcode of the
// request it answers.
var ErrOutOfOrder = errors.New("client: out-of-order response")

// Client is a connected game session. It is not safe for concurrent use: the
// protocol allows exactly one request in flight per connection.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger
}

// Dial connects to the server. http/https URLs are rewritten to ws/wss and
// the game endpoint path is appended.
func Dial(serverURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	logger.Debug("Connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: connect %s: %w", u.String(), err)
	}

	return &Client{conn: conn, logger: logger.WithPrefix("client")}, nil
}

// Close closes the connection without the terminate handshake.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call writes one request and, for opcodes that carry one, reads its
// response.
func (c *Client) call(op protocol.Opcode, payload string) (*protocol.Response, error) {
	if err := c.conn.WriteJSON(&protocol.Request{Op: op, Payload: payload}); err != nil {
		return nil, fmt.Errorf("client: send %s: %w", op, err)
	}
	if !op.HasResponse() {
		return nil, nil
	}

	var resp protocol.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("client: read %s response: %w", op, err)
	}
	if resp.Op != op {
		return nil, fmt.Errorf("%w: sent %s, got %s", ErrOutOfOrder, op, resp.Op)
	}
	return &resp, nil
}

func (c *Client) callString(op protocol.Opcode) (string, error) {
	resp, err := c.call(op, "")
	if err != nil {
		return "", err
	}
	return resp.StringValue()
}

func (c *Client) callInt(op protocol.Opcode) (int, error) {
	resp, err := c.call(op, "")
	if err != nil {
		return 0, err
	}
	return resp.IntValue()
}

func (c *Client) callBool(op protocol.Opcode) (bool, error) {
	resp, err := c.call(op, "")
	if err != nil {
		return false, err
	}
	return resp.BoolValue()
}

// SetUsername sets the display name for this session.
func (c *Client) SetUsername(name string) error {
	_, err := c.call(protocol.OpSetUsername, name)
	return err
}

// Word returns the masked word.
func (c *Client) Word() (string, error) {
	return c.callString(protocol.OpGetWord)
}

// Tip returns the current word's tip, "" in round 1.
func (c *Client) Tip() (string, error) {
	return c.callString(protocol.OpGetTip)
}

// RouletteAvailable reports whether a fresh spin is on offer.
func (c *Client) RouletteAvailable() (bool, error) {
	return c.callBool(protocol.OpIsRouletteAvail)
}

// SpinRoulette spins the roulette, or recalls the previous value when no
// spin is available.
func (c *Client) SpinRoulette() (int, error) {
	return c.callInt(protocol.OpGetRouletteValue)
}

// TryCharacter guesses one letter and returns how many positions it
// revealed.
func (c *Client) TryCharacter(ch byte) (int, error) {
	resp, err := c.call(protocol.OpTryCharacter, string(ch))
	if err != nil {
		return 0, err
	}
	return resp.IntValue()
}

// RoundNumber returns the current round, starting at 1.
func (c *Client) RoundNumber() (int, error) {
	return c.callInt(protocol.OpGetRoundNumber)
}

// RoundFinished reports whether the current word is fully revealed.
func (c *Client) RoundFinished() (bool, error) {
	return c.callBool(protocol.OpIsRoundFinished)
}

// HasNextRound reports whether the game still has rounds to play.
func (c *Client) HasNextRound() (bool, error) {
	return c.callBool(protocol.OpHasNextRound)
}

// RoundScore returns the current round's in-progress score.
func (c *Client) RoundScore() (int, error) {
	return c.callInt(protocol.OpGetCurrentScore)
}

// AccumulatedScore returns the banked score of completed rounds.
func (c *Client) AccumulatedScore() (int, error) {
	return c.callInt(protocol.OpAccumulatedScore)
}

// NextRound advances to the next round, reporting whether it advanced.
func (c *Client) NextRound() (bool, error) {
	return c.callBool(protocol.OpNextRound)
}

// Highscore returns this user's persisted best score.
func (c *Client) Highscore() (int, error) {
	return c.callInt(protocol.OpGetUserHighscore)
}

// Top3 returns the global leaderboard, best first.
func (c *Client) Top3() ([]protocol.RankingEntry, error) {
	wire, err := c.callString(protocol.OpRankingTop3)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeTop3(wire)
}

// Terminate ends the session and closes the connection.
func (c *Client) Terminate() error {
	_, err := c.call(protocol.OpTerminate, "")
	closeErr := c.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}
