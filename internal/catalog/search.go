// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"sort"
	"strings"
)

const (
	// minQueryLen is the shortest query that produces results.
	minQueryLen = 2

	// minTokenLen drops short filler words like "on" or "to".
	minTokenLen = 3

	platformScore  = 15.0
	actionWeight   = 10.0
	wholeWordBonus = 5.0
)

// Match is one scored search hit.
type Match struct {
	Platform  string   `json:"platform"`
	Action    string   `json:"action"`
	ActionKey string   `json:"action_key"`
	Score     float64  `json:"score"`
	Tokens    []string `json:"matched_tokens"`
}

// Search scores every (platform, action) pair against the query and returns
// the hits best first. A platform name containing a token scores highest;
// an action name containing a token scores by the token's share of the
// query, with a bonus when the token is a whole word of the action.
func (c *Catalog) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < minQueryLen {
		return nil
	}

	var tokens []string
	for _, tok := range strings.Split(q, " ") {
		if len(tok) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	var matches []Match
	for _, platform := range c.Platforms() {
		p := strings.ToLower(platform)
		for _, action := range c.actions {
			a := strings.ToLower(action.Name)
			var score float64
			var matched []string
			for _, tok := range tokens {
				if strings.Contains(p, tok) {
					score += platformScore
					matched = append(matched, tok)
				}
				if strings.Contains(a, tok) {
					score += actionWeight * float64(len(tok)) / float64(len(q))
					if isWholeWord(a, tok) {
						score += wholeWordBonus
					}
					matched = append(matched, tok)
				}
			}
			if score > 0 {
				matches = append(matches, Match{
					Platform:  platform,
					Action:    action.Name,
					ActionKey: action.Key,
					Score:     score,
					Tokens:    matched,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// isWholeWord reports whether tok appears in s delimited by spaces or the
// string boundaries.
func isWholeWord(s, tok string) bool {
	return s == tok ||
		strings.Contains(s, " "+tok+" ") ||
		strings.HasPrefix(s, tok+" ") ||
		strings.HasSuffix(s, " "+tok)
}
