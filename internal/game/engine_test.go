package game

import (
	rand "math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func testEngine(t *testing.T, words ...WordTuple) *Engine {
	t.Helper()
	require.NotEmpty(t, words)
	list := &List{tuples: words}
	rng := testRNG(42)
	return NewEngine(list.Supply(rng), rng)
}

// spinUntil spins the roulette until it lands on want. The wheel redraw is
// seeded, so this is deterministic for a given test.
func spinUntil(t *testing.T, e *Engine, want int) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if e.SpinRoulette() == want {
			return
		}
	}
	t.Fatalf("roulette never landed on %d", want)
}

func TestMaskIsOneShorterThanWord(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "TESTE", Tip: "exam word"})

	assert.Equal(t, "----", e.Word())
	assert.False(t, e.IsRoundFinished())
}

func TestTryCharacterRevealsAndScores(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "TESTE", Tip: "exam word"})
	spinUntil(t, e, 100)

	// E occurs at positions 1 and 4; position 4 sits outside the mask but
	// still counts for scoring.
	assert.Equal(t, 2, e.TryCharacter('E'))
	assert.Equal(t, 200, e.RoundScore())
	assert.Equal(t, "-E--", e.Word())

	// The drawn value persists until the next spin.
	assert.Equal(t, 2, e.TryCharacter('T'))
	assert.Equal(t, "TE-T", e.Word())
	assert.Equal(t, 400, e.RoundScore())
	assert.False(t, e.IsRoundFinished())

	assert.Equal(t, 1, e.TryCharacter('S'))
	assert.Equal(t, "TEST", e.Word())
	assert.True(t, e.IsRoundFinished())
	assert.Equal(t, 500, e.RoundScore())
}

func TestTryCharacterLowercaseAndMiss(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "GUITAR", Tip: "instrument"})
	spinUntil(t, e, 100)

	assert.Equal(t, 1, e.TryCharacter('g'))
	assert.Equal(t, "G----", e.Word())

	assert.Equal(t, 0, e.TryCharacter('Z'))
	assert.Equal(t, 100, e.RoundScore())
}

func TestPlaceholdersTrackUnrevealedPositions(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "BALLOON", Tip: "party"})

	guesses := []byte{'B', 'A', 'L', 'O'}
	for _, ch := range guesses {
		e.SpinRoulette()
		e.TryCharacter(ch)
		placeholders := strings.Count(e.Word(), "-")
		assert.Equal(t, placeholders == 0, e.IsRoundFinished())
	}
	// B A L L O O (N is outside the mask)
	assert.Equal(t, "BALLOO", e.Word())
	assert.True(t, e.IsRoundFinished())
}

func TestTipSuppressedInRoundOne(t *testing.T) {
	t.Parallel()
	e := testEngine(t,
		WordTuple{Word: "ANCHOR", Tip: "ship"},
		WordTuple{Word: "CACTUS", Tip: "plant"},
	)

	assert.Equal(t, "", e.Tip())

	finishRound(t, e)
	require.True(t, e.NextRound())
	assert.NotEqual(t, "", e.Tip())
}

func TestRouletteBustZeroesRoundScoreOnly(t *testing.T) {
	t.Parallel()
	e := testEngine(t,
		WordTuple{Word: "ANCHOR", Tip: "ship"},
		WordTuple{Word: "CACTUS", Tip: "plant"},
	)

	// Bank some score into the accumulator first.
	spinUntil(t, e, 100)
	finishRound(t, e)
	require.True(t, e.NextRound())
	accumulated := e.AccumulatedScore()
	require.Positive(t, accumulated)

	e.TryCharacter('C')
	require.Positive(t, e.RoundScore())

	spinUntil(t, e, 0)
	assert.Equal(t, 0, e.RoundScore())
	assert.Equal(t, accumulated, e.AccumulatedScore())
}

func TestRouletteStaysAvailable(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "ANCHOR", Tip: "ship"})

	assert.True(t, e.RouletteAvailable())
	e.SpinRoulette()
	assert.True(t, e.RouletteAvailable())
	e.TryCharacter('A')
	assert.True(t, e.RouletteAvailable())
}

func TestSpinOnlyDrawsWheelValues(t *testing.T) {
	t.Parallel()
	e := testEngine(t, WordTuple{Word: "ANCHOR", Tip: "ship"})

	valid := map[int]bool{0: true}
	for _, v := range rouletteWheel {
		valid[v] = true
	}
	for i := 0; i < 200; i++ {
		assert.True(t, valid[e.SpinRoulette()])
	}
}

func TestNextRoundRequiresFinishedRound(t *testing.T) {
	t.Parallel()
	e := testEngine(t,
		WordTuple{Word: "ANCHOR", Tip: "ship"},
		WordTuple{Word: "CACTUS", Tip: "plant"},
	)

	assert.False(t, e.NextRound())
	assert.Equal(t, 1, e.RoundNumber())

	spinUntil(t, e, 100)
	finishRound(t, e)
	score := e.RoundScore()

	require.True(t, e.NextRound())
	assert.Equal(t, 2, e.RoundNumber())
	assert.Equal(t, 0, e.RoundScore())
	assert.Equal(t, score, e.AccumulatedScore())
}

func TestNoRoundsBeyondTotal(t *testing.T) {
	t.Parallel()
	e := testEngine(t,
		WordTuple{Word: "ANCHOR", Tip: "ship"},
		WordTuple{Word: "CACTUS", Tip: "plant"},
		WordTuple{Word: "LANTERN", Tip: "light"},
	)

	for round := 1; round <= TotalRounds; round++ {
		assert.True(t, e.HasNextRound())
		finishRound(t, e)
		require.True(t, e.NextRound(), "round %d", round)
	}

	assert.Equal(t, TotalRounds+1, e.RoundNumber())
	assert.False(t, e.HasNextRound())

	finishRound(t, e)
	assert.False(t, e.NextRound())
	assert.Equal(t, TotalRounds+1, e.RoundNumber())
}

func TestGuessAfterFinishedRoundDealsNextWord(t *testing.T) {
	t.Parallel()
	e := testEngine(t,
		WordTuple{Word: "ANCHOR", Tip: "ship"},
		WordTuple{Word: "CACTUS", Tip: "plant"},
	)

	spinUntil(t, e, 100)
	finishRound(t, e)
	score := e.RoundScore()
	require.True(t, e.IsRoundFinished())

	// A guess against a finished round peeks the next word: fresh mask, but
	// no round advance and no score banking.
	e.TryCharacter('X')
	assert.Contains(t, e.Word(), "-")
	assert.Equal(t, 1, e.RoundNumber())
	assert.Equal(t, score, e.RoundScore())
	assert.Equal(t, 0, e.AccumulatedScore())
}

// finishRound reveals the current word by guessing every letter.
func finishRound(t *testing.T, e *Engine) {
	t.Helper()
	for ch := byte('A'); ch <= 'Z'; ch++ {
		if e.IsRoundFinished() {
			return
		}
		e.TryCharacter(ch)
	}
	require.True(t, e.IsRoundFinished())
}
