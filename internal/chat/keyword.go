package chat

import (
	"fmt"
	"strings"

	"github.com/seenimoa/stockchat/internal/config"
)

// MatchMode selects how a keyword is looked up in a message.
type MatchMode string

const (
	// MatchToken matches when a whitespace-separated token equals the phrase.
	MatchToken MatchMode = "token"
	// MatchSubstring matches when the phrase occurs anywhere in the message.
	MatchSubstring MatchMode = "substring"
)

// Keyword is one entry of a detector table. Phrase is stored lower-cased.
type Keyword struct {
	Phrase string
	Match  MatchMode
}

// matches reports whether kw occurs in msg, which must already be
// lower-cased. tokens is msg split on whitespace.
func (kw Keyword) matches(msg string, tokens []string) bool {
	switch kw.Match {
	case MatchSubstring:
		return strings.Contains(msg, kw.Phrase)
	default:
		for _, tok := range tokens {
			if tok == kw.Phrase {
				return true
			}
		}
		return false
	}
}

// firstMatch returns the first keyword of table found in msg.
func firstMatch(table []Keyword, msg string, tokens []string) (Keyword, bool) {
	for _, kw := range table {
		if kw.matches(msg, tokens) {
			return kw, true
		}
	}
	return Keyword{}, false
}

// ParseKeywords converts configured keyword entries. An empty match mode
// falls back to def.
func ParseKeywords(entries []config.KeywordConfig, def MatchMode) ([]Keyword, error) {
	out := make([]Keyword, 0, len(entries))
	for i, e := range entries {
		phrase := strings.ToLower(strings.TrimSpace(e.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("keyword %d: empty phrase", i)
		}
		mode := MatchMode(strings.ToLower(strings.TrimSpace(e.Match)))
		switch mode {
		case "":
			mode = def
		case MatchToken, MatchSubstring:
		default:
			return nil, fmt.Errorf("keyword %q: unknown match mode %q", phrase, e.Match)
		}
		out = append(out, Keyword{Phrase: phrase, Match: mode})
	}
	return out, nil
}
