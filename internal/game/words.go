package game

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"os"
	"strings"
)

// Embedded default list so the server runs without any files configured.
//
//go:embed words.txt
var embeddedWords string

// ErrNoWords is returned when a word list ends up empty after parsing.
var ErrNoWords = errors.New("game: word list is empty")

// WordTuple is one entry of the word supply: the secret word and its tip.
type WordTuple struct {
	Word string
	Tip  string
}

// List is the loaded word/tip database. It is read-only after load and shared
// by every session; each session deals from it through its own Supply.
type List struct {
	tuples []WordTuple
}

// LoadList reads a word list from path, or the embedded default list when
// path is empty. Each non-blank, non-comment line is "WORD;tip". An empty or
// unparsable list is a configuration error: it fails here, at construction,
// never mid-game.
func LoadList(path string) (*List, error) {
	if path == "" {
		tuples, err := parseWords(strings.NewReader(embeddedWords))
		if err != nil {
			return nil, fmt.Errorf("game: embedded word list: %w", err)
		}
		return &List{tuples: tuples}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("game: open word list: %w", err)
	}
	defer f.Close()

	tuples, err := parseWords(f)
	if err != nil {
		return nil, fmt.Errorf("game: word list %s: %w", path, err)
	}
	return &List{tuples: tuples}, nil
}

func parseWords(r io.Reader) ([]WordTuple, error) {
	var tuples []WordTuple

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, tip, ok := strings.Cut(line, ";")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ';' separator", lineNo)
		}

		word = strings.ToUpper(strings.TrimSpace(word))
		tip = strings.TrimSpace(tip)
		if err := checkWord(word); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		tuples = append(tuples, WordTuple{Word: word, Tip: tip})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tuples) == 0 {
		return nil, ErrNoWords
	}
	return tuples, nil
}

// checkWord enforces plain A-Z words of at least two letters. The mask is
// byte-indexed and one shorter than the word, so anything else would not
// survive the engine.
func checkWord(word string) error {
	if len(word) < 2 {
		return fmt.Errorf("word %q too short", word)
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return fmt.Errorf("word %q contains non-letter %q", word, word[i])
		}
	}
	return nil
}

// Len returns the number of loaded tuples.
func (l *List) Len() int {
	return len(l.tuples)
}

// Supply returns a per-session dealing view over the list. The view shuffles
// a private order with the session's rng and never shares state with other
// sessions.
func (l *List) Supply(rng *rand.Rand) *Supply {
	s := &Supply{list: l, rng: rng}
	s.reshuffle()
	return s
}

// Supply deals word/tip tuples to a single engine. When the list runs out it
// reshuffles and starts over, so a running session cannot exhaust it.
type Supply struct {
	list  *List
	rng   *rand.Rand
	order []int
	next  int
}

func (s *Supply) reshuffle() {
	if s.order == nil {
		s.order = make([]int, len(s.list.tuples))
		for i := range s.order {
			s.order[i] = i
		}
	}
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
	s.next = 0
}

// Next deals the next tuple.
func (s *Supply) Next() WordTuple {
	if s.next >= len(s.order) {
		s.reshuffle()
	}
	t := s.list.tuples[s.order[s.next]]
	s.next++
	return t
}
