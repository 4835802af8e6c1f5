// Package moderation masks censored words in message content before
// fan-out. Matching runs on a normalized view of the text (lowercased,
// common substitutions folded, separators dropped) so split or
// leet-spelled words are still caught; masking is applied to the
// original runes.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	apperrors "chat-hub/errors"
)

var substitutions = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// word list.
func NewModerator(words []string, mask rune) (*Moderator, error) {
	if len(words) == 0 {
		return nil, apperrors.ErrEmptyWords
	}
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if normalized, _ := normalize([]rune(word)); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, mask: mask}, nil
}

// Censor replaces every matched span with the mask rune. The input is
// returned unchanged when nothing matches; Censor never rejects a
// message.
func (m *Moderator) Censor(content string) string {
	original := []rune(content)
	normalized, origIdx := normalize(original)
	if len(normalized) == 0 {
		return content
	}

	terms := m.machine.MultiPatternSearch(normalized, false)
	if len(terms) == 0 {
		return content
	}

	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = m.mask
		}
	}
	return string(original)
}

// normalize lowercases, folds substitutions and drops separator runes,
// tracking for every kept rune its index in the original text.
func normalize(input []rune) ([]rune, []int) {
	normalized := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		if folded, ok := substitutions[r]; ok {
			r = folded
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}
