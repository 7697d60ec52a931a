package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Top3Separator joins the fields of the ranking_top3 response. The flat
// "user-score-user-score-" form (trailing separator included) is the
// protocol's historical encoding and is kept as-is. A username containing the
// separator would corrupt the encoding, so the server rejects those at
// set_username time.
const Top3Separator = "-"

// RankingEntry is one leaderboard row as carried on the wire.
type RankingEntry struct {
	Username string
	Score    int
}

// EncodeTop3 flattens entries into the wire form.
func EncodeTop3(entries []RankingEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Username)
		b.WriteString(Top3Separator)
		b.WriteString(strconv.Itoa(e.Score))
		b.WriteString(Top3Separator)
	}
	return b.String()
}

// DecodeTop3 parses the wire form back into entries.
func DecodeTop3(s string) ([]RankingEntry, error) {
	if s == "" {
		return nil, nil
	}

	fields := strings.Split(strings.TrimSuffix(s, Top3Separator), Top3Separator)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("protocol: ranking encoding has %d fields", len(fields))
	}

	entries := make([]RankingEntry, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		score, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("protocol: ranking score %q: %w", fields[i+1], err)
		}
		entries = append(entries, RankingEntry{Username: fields[i], Score: score})
	}
	return entries, nil
}
