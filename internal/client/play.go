package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	wordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	tipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7"))

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	rouletteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	bustStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// PlayConfig drives one interactive console game.
type PlayConfig struct {
	Client   *Client
	Username string
	In       io.Reader
	Out      io.Writer
}

// Play runs the console game loop: spin, guess letters until the word is
// revealed, advance, and show the leaderboard at the end. It returns when the
// game is over, the input runs out, or the server drops the session.
func Play(cfg PlayConfig) error {
	c := cfg.Client
	in := bufio.NewScanner(cfg.In)
	out := cfg.Out

	fmt.Fprintln(out, titleStyle.Render("ROLETRANDO"))
	fmt.Fprintln(out)

	name := cfg.Username
	for name == "" {
		fmt.Fprint(out, promptStyle.Render("Your name: "))
		line, ok := readLine(in)
		if !ok {
			return io.ErrUnexpectedEOF
		}
		name = strings.TrimSpace(line)
	}
	if err := c.SetUsername(name); err != nil {
		return err
	}

	for {
		round, err := c.RoundNumber()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", titleStyle.Render(fmt.Sprintf("Round %d", round)))

		tip, err := c.Tip()
		if err != nil {
			return err
		}
		if tip != "" {
			fmt.Fprintf(out, "%s %s\n", infoStyle.Render("Tip:"), tipStyle.Render(tip))
		}

		if err := playRound(c, in, out); err != nil {
			return err
		}

		score, err := c.AccumulatedScore()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", infoStyle.Render("Total score:"), scoreStyle.Render(fmt.Sprint(score)))

		advanced, err := c.NextRound()
		if err != nil {
			return err
		}
		if !advanced {
			break
		}
		more, err := c.HasNextRound()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	if err := showFinalStandings(c, out); err != nil {
		return err
	}
	return c.Terminate()
}

// playRound spins once per guess and prompts letters until the word is
// revealed.
func playRound(c *Client, in *bufio.Scanner, out io.Writer) error {
	for {
		word, err := c.Word()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s %s\n", infoStyle.Render("Word:"), wordStyle.Render(word))

		finished, err := c.RoundFinished()
		if err != nil {
			return err
		}
		if finished {
			fmt.Fprintln(out, scoreStyle.Render("Round complete!"))
			return nil
		}

		value, err := c.SpinRoulette()
		if err != nil {
			return err
		}
		if value == 0 {
			fmt.Fprintln(out, bustStyle.Render("The roulette hit zero, your round score is gone."))
		} else {
			fmt.Fprintf(out, "%s %s\n", infoStyle.Render("Roulette:"), rouletteStyle.Render(fmt.Sprint(value)))
		}

		ch, ok := promptLetter(in, out)
		if !ok {
			return io.ErrUnexpectedEOF
		}

		revealed, err := c.TryCharacter(ch)
		if err != nil {
			return err
		}
		score, err := c.RoundScore()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s revealed %d, round score %s\n",
			wordStyle.Render(string(ch)), revealed, scoreStyle.Render(fmt.Sprint(score)))
	}
}

// promptLetter keeps asking until the player types a single letter.
func promptLetter(in *bufio.Scanner, out io.Writer) (byte, bool) {
	for {
		fmt.Fprint(out, promptStyle.Render("Guess a letter: "))
		line, ok := readLine(in)
		if !ok {
			return 0, false
		}
		guess := strings.TrimSpace(line)
		if len(guess) == 1 {
			return guess[0], true
		}
		fmt.Fprintln(out, infoStyle.Render("One letter at a time."))
	}
}

func showFinalStandings(c *Client, out io.Writer) error {
	highscore, err := c.Highscore()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s %s\n", infoStyle.Render("Your best:"), scoreStyle.Render(fmt.Sprint(highscore)))

	top3, err := c.Top3()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render("Leaderboard"))
	for i, entry := range top3 {
		fmt.Fprintf(out, "%d. %s %s\n", i+1, wordStyle.Render(entry.Username), scoreStyle.Render(fmt.Sprint(entry.Score)))
	}
	return nil
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return in.Text(), true
}
