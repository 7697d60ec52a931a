package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allenhichard/roletrando/internal/client"
	"github.com/allenhichard/roletrando/internal/game"
	"github.com/allenhichard/roletrando/internal/ranking"
)

type memStorage struct {
	mu      sync.Mutex
	entries []ranking.Entry
}

func (m *memStorage) Load() ([]ranking.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ranking.Entry(nil), m.entries...), nil
}

func (m *memStorage) Save(entries []ranking.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]ranking.Entry(nil), entries...)
	return nil
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// startTestServer runs a server over the given word list content and returns
// its base URL.
func startTestServer(t *testing.T, words string) (string, *ranking.Store) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(words), 0o644))
	list, err := game.LoadList(path)
	require.NoError(t, err)

	store, err := ranking.Open(&memStorage{}, quartz.NewReal(), testLogger())
	require.NoError(t, err)

	srv := NewServer(list, store, testLogger(), 42)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = store.Close()
	})

	return ts.URL, store
}

func dialTestClient(t *testing.T, url string) *client.Client {
	t.Helper()
	c, err := client.Dial(url, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// spinUntil spins the roulette through the client until it lands on want.
func spinUntil(t *testing.T, c *client.Client, want int) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		v, err := c.SpinRoulette()
		require.NoError(t, err)
		if v == want {
			return
		}
	}
	t.Fatalf("roulette never landed on %d", want)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	url, _ := startTestServer(t, "TESTE;exam word\n")

	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFullGameSession(t *testing.T) {
	t.Parallel()
	url, _ := startTestServer(t, "TESTE;exam word\n")
	c := dialTestClient(t, url)

	require.NoError(t, c.SetUsername("alice"))

	word, err := c.Word()
	require.NoError(t, err)
	assert.Equal(t, "----", word, "mask is one shorter than the 5-letter word")

	tip, err := c.Tip()
	require.NoError(t, err)
	assert.Equal(t, "", tip, "no tip in round 1")

	available, err := c.RouletteAvailable()
	require.NoError(t, err)
	assert.True(t, available)

	spinUntil(t, c, 100)

	revealed, err := c.TryCharacter('E')
	require.NoError(t, err)
	assert.Equal(t, 2, revealed)

	score, err := c.RoundScore()
	require.NoError(t, err)
	assert.Equal(t, 200, score)

	word, err = c.Word()
	require.NoError(t, err)
	assert.Equal(t, "-E--", word)

	revealed, err = c.TryCharacter('T')
	require.NoError(t, err)
	assert.Equal(t, 2, revealed)

	revealed, err = c.TryCharacter('S')
	require.NoError(t, err)
	assert.Equal(t, 1, revealed)

	finished, err := c.RoundFinished()
	require.NoError(t, err)
	assert.True(t, finished)

	round, err := c.RoundNumber()
	require.NoError(t, err)
	assert.Equal(t, 1, round)

	advanced, err := c.NextRound()
	require.NoError(t, err)
	assert.True(t, advanced)

	round, err = c.RoundNumber()
	require.NoError(t, err)
	assert.Equal(t, 2, round)

	accumulated, err := c.AccumulatedScore()
	require.NoError(t, err)
	assert.Equal(t, 500, accumulated)

	highscore, err := c.Highscore()
	require.NoError(t, err)
	assert.Equal(t, 500, highscore)

	tip, err = c.Tip()
	require.NoError(t, err)
	assert.Equal(t, "exam word", tip, "tip shows from round 2 on")

	require.NoError(t, c.Terminate())
}

// playOneRound finishes the single TESTE round at the given roulette value
// and advances, banking (2+2+1)*value points.
func playOneRound(t *testing.T, c *client.Client, value int) {
	t.Helper()
	spinUntil(t, c, value)
	for _, ch := range []byte{'E', 'T', 'S'} {
		_, err := c.TryCharacter(ch)
		require.NoError(t, err)
	}
	advanced, err := c.NextRound()
	require.NoError(t, err)
	require.True(t, advanced)
}

func TestLeaderboardAcrossSessions(t *testing.T) {
	t.Parallel()
	url, store := startTestServer(t, "TESTE;exam word\n")

	alice := dialTestClient(t, url)
	require.NoError(t, alice.SetUsername("alice"))
	playOneRound(t, alice, 100)
	require.NoError(t, alice.Terminate())

	bob := dialTestClient(t, url)
	require.NoError(t, bob.SetUsername("bob"))
	playOneRound(t, bob, 300)

	top3, err := bob.Top3()
	require.NoError(t, err)
	require.Len(t, top3, 2)
	assert.Equal(t, "bob", top3[0].Username)
	assert.Equal(t, 1500, top3[0].Score)
	assert.Equal(t, "alice", top3[1].Username)
	assert.Equal(t, 500, top3[1].Score)
	require.NoError(t, bob.Terminate())

	// A later, lower game never lowers the stored highscore.
	alice2 := dialTestClient(t, url)
	require.NoError(t, alice2.SetUsername("alice"))
	highscore, err := alice2.Highscore()
	require.NoError(t, err)
	assert.Equal(t, 500, highscore)

	assert.Equal(t, 500, store.HighscoreOf("alice"))
}

func TestMalformedOpcodeAbortsSession(t *testing.T) {
	t.Parallel()
	url, _ := startTestServer(t, "TESTE;exam word\n")

	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"steal_the_pot"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server closes the session on a malformed request")

	// Other sessions are unaffected.
	c := dialTestClient(t, url)
	word, err := c.Word()
	require.NoError(t, err)
	assert.Equal(t, "----", word)
}

func TestMalformedTryCharacterPayloadAbortsSession(t *testing.T) {
	t.Parallel()
	url, _ := startTestServer(t, "TESTE;exam word\n")

	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"try_character","payload":"ES"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestUsernameWithSeparatorRejected(t *testing.T) {
	t.Parallel()
	url, _ := startTestServer(t, "TESTE;exam word\n")
	c := dialTestClient(t, url)

	// set_username carries no response; the rejection shows up as a closed
	// connection on the next call.
	require.NoError(t, c.SetUsername("al-ice"))
	_, err := c.Word()
	assert.Error(t, err)
}

func TestConcurrentSessions(t *testing.T) {
	t.Parallel()
	url, store := startTestServer(t, "TESTE;exam word\n")

	const players = 8
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c, err := client.Dial(url, testLogger())
			if err != nil {
				t.Error(err)
				return
			}
			defer c.Close()

			name := string(rune('a'+n)) + "player"
			if err := c.SetUsername(name); err != nil {
				t.Error(err)
				return
			}
			playOneRound(t, c, 100)
			_ = c.Terminate()
		}(i)
	}
	wg.Wait()

	for i := 0; i < players; i++ {
		name := string(rune('a'+i)) + "player"
		assert.Equal(t, 500, store.HighscoreOf(name))
	}
}
