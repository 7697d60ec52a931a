package game

import (
	"bytes"
	rand "math/rand/v2"
)

const (
	// TotalRounds is the fixed number of rounds in one game.
	TotalRounds = 4

	placeholder = '-'
)

// rouletteWheel holds the values the roulette can land on. The duplicate 100
// and the 0 bust slot are intentional weighting, not a mistake.
var rouletteWheel = [...]int{100, 200, 300, 400, 500, 600, 700, 800, 900, 100, 0}

// Engine drives one player's progression through the fixed sequence of
// rounds: the current word, the player-visible mask, the roulette and the
// round/accumulated scores. An Engine is exclusively owned by one session and
// needs no locking.
type Engine struct {
	word              string
	revealed          []byte
	tip               string
	rouletteValue     int
	rouletteAvailable bool
	roundNumber       int
	roundScore        int
	accumulatedScore  int
	supply            *Supply
	rng               *rand.Rand
}

// NewEngine creates an engine for a fresh session and deals the first word.
func NewEngine(supply *Supply, rng *rand.Rand) *Engine {
	e := &Engine{
		supply:            supply,
		rng:               rng,
		roundNumber:       1,
		rouletteAvailable: true,
	}
	e.deal()
	return e
}

// deal fetches the next word/tip pair and rebuilds the mask. The mask is one
// position shorter than the word: the final letter is never hidden.
func (e *Engine) deal() {
	next := e.supply.Next()
	e.word = next.Word
	e.tip = next.Tip
	e.revealed = bytes.Repeat([]byte{placeholder}, len(e.word)-1)
}

// Word returns the player-visible word: revealed letters in place,
// placeholders everywhere else.
func (e *Engine) Word() string {
	return string(e.revealed)
}

// Tip returns the hint for the current word. Round 1 is played without a tip.
func (e *Engine) Tip() string {
	if e.roundNumber == 1 {
		return ""
	}
	return e.tip
}

// RouletteAvailable reports whether a fresh spin is on offer. The flag is set
// at round start and again after every guess.
func (e *Engine) RouletteAvailable() bool {
	return e.rouletteAvailable
}

// SpinRoulette draws a new per-letter value from the wheel when the roulette
// is available, otherwise it returns the previous draw unchanged. Landing on
// 0 is a bust: the round's in-progress score is wiped (the accumulated score
// from completed rounds is untouched).
func (e *Engine) SpinRoulette() int {
	if e.rouletteAvailable {
		e.rouletteValue = rouletteWheel[e.rng.IntN(len(rouletteWheel))]
		if e.rouletteValue == 0 {
			e.roundScore = 0
		}
	}
	return e.rouletteValue
}

// TryCharacter reveals every occurrence of ch in the current word and scores
// occurrences times the current roulette value. It returns the occurrence
// count, 0 when the letter is not in the word.
//
// Calling it against an already-finished round first deals the next word and
// guesses against that. This is a side effect, not a pure query: it lets a
// client peek the next mask before NEXT_ROUND, and clients depend on it.
// Round number and scores are not advanced by the refresh.
func (e *Engine) TryCharacter(ch byte) int {
	if e.IsRoundFinished() {
		e.deal()
	}

	e.rouletteAvailable = true

	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}

	// Occurrences are counted over the whole word; the final letter sits
	// outside the mask, so a hit there scores but has nothing to reveal.
	occurrences := 0
	for i := 0; i < len(e.word); i++ {
		if e.word[i] != ch {
			continue
		}
		occurrences++
		if i < len(e.revealed) {
			e.revealed[i] = ch
		}
	}

	e.roundScore += occurrences * e.rouletteValue
	return occurrences
}

// IsRoundFinished reports whether every masked position has been revealed.
func (e *Engine) IsRoundFinished() bool {
	return bytes.IndexByte(e.revealed, placeholder) == -1
}

// HasNextRound reports whether the game still has rounds to play.
func (e *Engine) HasNextRound() bool {
	return e.roundNumber <= TotalRounds
}

// NextRound advances to the next round: a new word is dealt, the round score
// is banked into the accumulated score and reset. It returns false, changing
// nothing, when the current round is unfinished or the rounds are used up.
func (e *Engine) NextRound() bool {
	if !e.IsRoundFinished() || !e.HasNextRound() {
		return false
	}

	e.deal()
	e.roundNumber++
	e.accumulatedScore += e.roundScore
	e.roundScore = 0
	return true
}

// RoundScore returns the points scored so far in the current round.
func (e *Engine) RoundScore() int {
	return e.roundScore
}

// AccumulatedScore returns the sum of completed rounds' scores.
func (e *Engine) AccumulatedScore() int {
	return e.accumulatedScore
}

// RoundNumber returns the current round, starting at 1.
func (e *Engine) RoundNumber() int {
	return e.roundNumber
}
