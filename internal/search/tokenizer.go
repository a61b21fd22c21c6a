// Package search builds an inverted keyword index over note segments
// and answers ranked queries.
package search

import (
	"strings"
	"unicode"
)

// Tokenize splits text into normalized index tokens. Markdown
// punctuation is stripped first. Alphanumeric runs become lowercase
// tokens (minimum two characters). Han ideographs are meaningful on
// their own, so each one is a token and each adjacent pair is
// additionally indexed as a bigram. Returned tokens are deduplicated in
// first-seen order.
func Tokenize(text string) []string {
	var tokens []string
	seen := make(map[string]bool)
	add := func(tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	var word []rune
	var prevHan rune
	flushWord := func() {
		if len(word) >= 2 {
			add(strings.ToLower(string(word)))
		}
		word = word[:0]
	}

	for _, r := range text {
		switch {
		case isMarkdownPunct(r):
			flushWord()
			prevHan = 0
		case isHan(r):
			flushWord()
			add(string(r))
			if prevHan != 0 {
				add(string([]rune{prevHan, r}))
			}
			prevHan = r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
			prevHan = 0
		default:
			flushWord()
			prevHan = 0
		}
	}
	flushWord()

	return tokens
}

// isHan reports whether r falls in the CJK unified ideograph ranges.
func isHan(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF)
}

// isMarkdownPunct matches the markdown syntax characters stripped
// before tokenizing.
func isMarkdownPunct(r rune) bool {
	switch r {
	case '#', '*', '_', '`', '[', ']', '(', ')':
		return true
	}
	return false
}

// synonyms is the static expansion table. Queries are expanded in both
// directions: a token maps to its related terms, and any related term
// maps back to the whole group.
var synonyms = map[string][]string{
	"user":        {"用戶", "使用者", "preferences"},
	"preferences": {"喜好", "偏好", "喜歡"},
	"config":      {"配置", "設定", "settings", "configuration"},
	"api":         {"接口", "endpoint"},
	"memory":      {"記憶", "context"},
	"project":     {"專案", "項目"},
	"task":        {"任務", "工作"},
	"note":        {"筆記", "記錄"},
}

// reverseSynonyms maps every related term back to its group heads.
var reverseSynonyms = func() map[string][]string {
	rev := make(map[string][]string)
	for head, related := range synonyms {
		for _, term := range related {
			rev[term] = append(rev[term], head)
		}
	}
	return rev
}()

// Expand returns the query tokens plus their synonym expansions.
// Original tokens come first so callers can weight them separately.
func Expand(tokens []string) (original, expanded []string) {
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		seen[tok] = true
	}
	add := func(tok string) {
		if seen[tok] {
			return
		}
		seen[tok] = true
		expanded = append(expanded, tok)
	}

	for _, tok := range tokens {
		for _, syn := range synonyms[tok] {
			add(syn)
		}
		for _, head := range reverseSynonyms[tok] {
			add(head)
			for _, sibling := range synonyms[head] {
				add(sibling)
			}
		}
	}
	return tokens, expanded
}
