// Package protocol defines the wire protocol between a game client and the
// server: one opcoded request per frame, answered by exactly one scalar
// response. The client keeps at most one request in flight per connection.
package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Opcode identifies a request. The set is closed: decoding rejects anything
// outside it instead of letting an unknown opcode fall through.
type Opcode string

const (
	OpSetUsername      Opcode = "set_username"
	OpGetWord          Opcode = "get_word"
	OpGetTip           Opcode = "get_tip"
	OpIsRouletteAvail  Opcode = "is_roulette_available"
	OpGetRouletteValue Opcode = "get_roulette_value"
	OpTryCharacter     Opcode = "try_character"
	OpGetRoundNumber   Opcode = "get_round_number"
	OpIsRoundFinished  Opcode = "is_round_finished"
	OpHasNextRound     Opcode = "has_next_round"
	OpGetCurrentScore  Opcode = "get_current_score"
	OpAccumulatedScore Opcode = "accumulated_score"
	OpNextRound        Opcode = "next_round"
	OpGetUserHighscore Opcode = "get_user_high_score"
	OpRankingTop3      Opcode = "ranking_top3"
	OpTerminate        Opcode = "terminate"
)

var opcodes = map[Opcode]bool{
	OpSetUsername:      true,
	OpGetWord:          true,
	OpGetTip:           true,
	OpIsRouletteAvail:  true,
	OpGetRouletteValue: true,
	OpTryCharacter:     true,
	OpGetRoundNumber:   true,
	OpIsRoundFinished:  true,
	OpHasNextRound:     true,
	OpGetCurrentScore:  true,
	OpAccumulatedScore: true,
	OpNextRound:        true,
	OpGetUserHighscore: true,
	OpRankingTop3:      true,
	OpTerminate:        true,
}

// ParseOpcode validates s against the closed opcode set.
func ParseOpcode(s string) (Opcode, error) {
	op := Opcode(s)
	if !opcodes[op] {
		return "", fmt.Errorf("protocol: unknown opcode %q", s)
	}
	return op, nil
}

// UnmarshalJSON decodes and validates an opcode in one step, so a request or
// response carrying an unknown opcode fails at the decode boundary.
func (o *Opcode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	op, err := ParseOpcode(s)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// String returns the string form of the opcode.
func (o Opcode) String() string {
	return string(o)
}

// HasResponse reports whether the opcode is answered at all. SET_USERNAME and
// TERMINATE are fire-and-forget; every other request gets exactly one
// response.
func (o Opcode) HasResponse() bool {
	return o != OpSetUsername && o != OpTerminate
}

// Request is one client message: an opcode and at most one scalar payload
// (the username for set_username, a single character for try_character).
type Request struct {
	Op      Opcode `json:"op"`
	Payload string `json:"payload,omitempty"`
}

// Response answers one request. Value holds the single scalar result; Error
// is set instead of Value when the server could not serve the request.
type Response struct {
	Op    Opcode          `json:"op"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewStringResponse builds a response carrying a string value.
func NewStringResponse(op Opcode, v string) *Response {
	raw, _ := json.Marshal(v)
	return &Response{Op: op, Value: raw}
}

// NewIntResponse builds a response carrying an int value.
func NewIntResponse(op Opcode, v int) *Response {
	return &Response{Op: op, Value: json.RawMessage(strconv.Itoa(v))}
}

// NewBoolResponse builds a response carrying a bool value.
func NewBoolResponse(op Opcode, v bool) *Response {
	return &Response{Op: op, Value: json.RawMessage(strconv.FormatBool(v))}
}

// NewErrorResponse builds an error response for op.
func NewErrorResponse(op Opcode, msg string) *Response {
	return &Response{Op: op, Error: msg}
}

// StringValue decodes the response value as a string.
func (r *Response) StringValue() (string, error) {
	if r.Error != "" {
		return "", fmt.Errorf("protocol: %s: %s", r.Op, r.Error)
	}
	var v string
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return "", fmt.Errorf("protocol: %s: decode string value: %w", r.Op, err)
	}
	return v, nil
}

// IntValue decodes the response value as an int.
func (r *Response) IntValue() (int, error) {
	if r.Error != "" {
		return 0, fmt.Errorf("protocol: %s: %s", r.Op, r.Error)
	}
	var v int
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return 0, fmt.Errorf("protocol: %s: decode int value: %w", r.Op, err)
	}
	return v, nil
}

// BoolValue decodes the response value as a bool.
func (r *Response) BoolValue() (bool, error) {
	if r.Error != "" {
		return false, fmt.Errorf("protocol: %s: %s", r.Op, r.Error)
	}
	var v bool
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return false, fmt.Errorf("protocol: %s: decode bool value: %w", r.Op, err)
	}
	return v, nil
}
