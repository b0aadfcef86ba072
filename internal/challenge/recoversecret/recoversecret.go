// Package recoversecret implements the RecoverSecret engine from spec.md
// §4.3: incremental proposition expansion across a set of ordered letter
// tuples, with a dictionary-aware sentence mode and a dictionary-free
// sequence mode. The control flow is ported from
// original_source/recover_secret/src/challenge_resolve.rs, the "most
// complete draft" spec.md §9 points to for this engine, and generalized
// into idiomatic Go (slices instead of recursive Vec::remove(0), explicit
// []rune handling instead of byte-indexed &str slicing).
package recoversecret

import (
	"math/rand"
	"strings"
	"unicode"

	"crab.casa/puzzle-tournament/internal/ptserr"
)

// Instance is one RecoverSecret challenge's input (spec.md §3): invariant
// sum(TupleSizes) == len(Letters) (in runes).
type Instance struct {
	WordCount  int
	Letters    string
	TupleSizes []int
}

// Dictionary reports whether a lowercased word belongs to the loaded word
// list. internal/assets provides the concrete implementation backing this
// from a loaded wordlist file; kept as a narrow interface here so this
// package has no dependency on how the dictionary was loaded.
type Dictionary interface {
	Has(word string) bool
}

// tuples slices Letters into TupleSizes-delimited rune tuples.
func tuples(input Instance) [][]rune {
	letters := []rune(input.Letters)
	out := make([][]rune, 0, len(input.TupleSizes))
	idx := 0
	for _, size := range input.TupleSizes {
		out = append(out, append([]rune{}, letters[idx:idx+size]...))
		idx += size
	}
	return out
}

// SolveSequence resolves a challenge in dictionary-free "sequence mode":
// the answer is the first surviving proposition, padded with spaces until
// its token count matches WordCount.
func SolveSequence(input Instance) (string, error) {
	props, err := expandAll(tuples(input), input.WordCount, false)
	if err != nil {
		return "", err
	}
	seq := props[0]
	current := wordCount(seq)
	if current == input.WordCount {
		return string(seq), nil
	}
	return string(addSpacesInSequence(seq, input.WordCount-current)), nil
}

// SolveSentence resolves a challenge in dictionary-aware "sentence mode":
// the answer is the first proposition all of whose lowercased tokens
// (split on ' ' and '-') appear in dict. Invalid tokens are cached so
// later propositions sharing them are skipped without a dictionary call.
func SolveSentence(input Instance, dict Dictionary) (string, error) {
	props, err := expandAll(tuples(input), input.WordCount, true)
	if err != nil {
		return "", err
	}

	invalid := make(map[string]bool)
	for _, p := range props {
		s := string(p)
		words := splitWords(strings.ToLower(s))

		skip := false
		for _, w := range words {
			if invalid[w] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		allKnown := true
		for _, w := range words {
			if !dict.Has(w) {
				allKnown = false
				invalid[w] = true
				break
			}
		}
		if allKnown {
			return s, nil
		}
	}
	return "", ptserr.ErrNoSolution
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })
}

func wordCount(s []rune) int {
	return len(strings.Fields(string(s)))
}

// Validate checks (input, output) per spec.md §4.3: the output's token
// count must equal WordCount, and every tuple's characters must appear as
// an ordered (not necessarily contiguous) subsequence of the output.
func Validate(input Instance, output string) bool {
	if wordCount([]rune(output)) != input.WordCount {
		return false
	}
	for _, tuple := range tuples(input) {
		if !isOrderedSubsequence([]rune(output), tuple) {
			return false
		}
	}
	return true
}

func isOrderedSubsequence(s []rune, seq []rune) bool {
	cur := s
	for _, ch := range seq {
		idx := indexOfRune(cur, ch)
		if idx < 0 {
			return false
		}
		cur = cur[idx+1:]
	}
	return true
}

// Generate produces a random practice instance for the given word count,
// supplementing spec.md from
// original_source/recover_secret/src/challenge_generator.rs: random
// tuple sizes in [1,8], 5-9 tuples, letters drawn from ASCII letters and
// digits.
func Generate(wordCount int, rng *rand.Rand) Instance {
	numTuples := 5 + rng.Intn(5)
	sizes := make([]int, numTuples)
	var letters strings.Builder
	for i := range sizes {
		size := 1 + rng.Intn(8)
		sizes[i] = size
		for j := 0; j < size; j++ {
			letters.WriteRune(randomLetter(rng))
		}
	}
	return Instance{WordCount: wordCount, Letters: letters.String(), TupleSizes: sizes}
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomLetter(rng *rand.Rand) rune {
	return rune(alphanumeric[rng.Intn(len(alphanumeric))])
}

// --- proposition expansion --------------------------------------------------

// expandAll folds every tuple into the growing set of candidate strings.
// allPositions selects "sentence mode" (try every valid insertion
// position) vs "single-candidate mode" (append only) per spec.md §4.3.
func expandAll(tupleList [][]rune, wordCount int, allPositions bool) ([][]rune, error) {
	if len(tupleList) == 0 {
		return nil, ptserr.ErrNoSolution
	}

	props := [][]rune{append([]rune{}, tupleList[0]...)}
	for _, tuple := range tupleList[1:] {
		var next [][]rune
		for _, p := range props {
			next = append(next, expandOne(tuple, p, wordCount, allPositions)...)
		}
		props = next
		if len(props) == 0 {
			return nil, ptserr.ErrNoSolution
		}
	}
	return props, nil
}

// expandOne folds one tuple's characters into a single existing
// proposition, producing every surviving candidate.
func expandOne(tuple []rune, prop []rune, wordCount int, allPositions bool) [][]rune {
	current := [][]rune{prop}
	n := len(tuple)
	for idx, ch := range tuple {
		var next [][]rune
		for _, p := range current {
			switch {
			case idx == 0:
				next = append(next, expandFirst(tuple, p, ch, n, wordCount, allPositions)...)
			case idx == n-1:
				next = append(next, expandLast(tuple, p, ch, idx, wordCount, allPositions)...)
			default:
				next = append(next, expandMiddle(tuple, p, ch, idx, wordCount, allPositions)...)
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

func expandFirst(tuple []rune, prop []rune, ch rune, tupleLen, wordCount int, allPositions bool) [][]rune {
	if tupleLen == 1 {
		if containsRune(prop, ch) {
			return [][]rune{cloneRunes(prop)}
		}
		var out [][]rune
		for _, i := range firstCharPositions(prop, ch, allPositions) {
			out = append(out, insertRune(prop, ch, i))
		}
		return out
	}

	nextChar := tuple[1]
	isNextPresent := containsRune(prop, nextChar)
	base := cloneRunes(prop)
	if isNextPresent {
		base = beforeLast(prop, nextChar)
	}
	if containsRune(base, ch) {
		return [][]rune{cloneRunes(prop)}
	}

	var out [][]rune
	for _, i := range firstCharPositions(base, ch, allPositions) {
		inserted := insertRune(base, ch, i)
		composed := composeAfterChar(inserted, nextChar, isNextPresent, prop)
		if wordCount >= wordCountOf(composed) {
			out = append(out, composed)
		}
	}
	return out
}

func expandMiddle(tuple []rune, prop []rune, ch rune, idx, wordCount int, allPositions bool) [][]rune {
	nextChar := tuple[idx+1]
	prevSeq := tuple[:idx]

	base := afterVecSequence(prop, prevSeq)
	isNextPresent := containsRune(base, nextChar)
	if isNextPresent {
		base = beforeLast(base, nextChar)
	}
	if containsRune(base, ch) {
		return [][]rune{cloneRunes(prop)}
	}

	var out [][]rune
	for _, i := range generalPositions(base, allPositions) {
		inserted := insertRune(base, ch, i)
		composed := composeBetweenChars(prop, prevSeq, nextChar, isNextPresent, inserted)
		if wordCountOf(composed) <= wordCount {
			out = append(out, composed)
		}
	}
	return out
}

func expandLast(tuple []rune, prop []rune, ch rune, idx, wordCount int, allPositions bool) [][]rune {
	prevSeq := tuple[:idx]
	base := afterVecSequence(prop, prevSeq)
	if containsRune(base, ch) {
		return [][]rune{cloneRunes(prop)}
	}

	var out [][]rune
	for _, i := range generalPositions(base, allPositions) {
		inserted := insertRune(base, ch, i)
		composed := composeBeforeChar(prop, prevSeq, inserted)
		if wordCountOf(composed) <= wordCount {
			out = append(out, composed)
		}
	}
	return out
}

// composeAfterChar rebuilds the full proposition for a first-of-many-char
// tuple insertion: inserted already excludes the tail after nextChar, so
// that tail (if nextChar was present) is reattached.
func composeAfterChar(inserted []rune, nextChar rune, isNextPresent bool, origProp []rune) []rune {
	out := cloneRunes(inserted)
	if isNextPresent {
		out = append(out, nextChar)
		out = append(out, afterLast(origProp, nextChar)...)
	}
	return out
}

func composeBetweenChars(origProp []rune, prevSeq []rune, nextChar rune, isNextPresent bool, inserted []rune) []rune {
	prefix := beforeVecSequenceInclusive(origProp, prevSeq)
	out := append(cloneRunes(prefix), inserted...)
	if isNextPresent {
		tail := afterLast(origProp, nextChar)
		out = append(out, nextChar)
		out = append(out, tail...)
	}
	return out
}

func composeBeforeChar(origProp []rune, prevSeq []rune, inserted []rune) []rune {
	prefix := beforeVecSequenceInclusive(origProp, prevSeq)
	return append(cloneRunes(prefix), inserted...)
}

// firstCharPositions implements the "proper-noun discipline" case rule
// from spec.md §4.3: an uppercase tuple character is forced to the very
// front; a lowercase one may go anywhere except before an already-leading
// uppercase character.
func firstCharPositions(s []rune, ch rune, allPositions bool) []int {
	if !allPositions {
		return []int{len(s)}
	}
	if unicode.IsUpper(ch) {
		return []int{0}
	}
	return generalPositions(s, allPositions)
}

func generalPositions(s []rune, allPositions bool) []int {
	if !allPositions {
		return []int{len(s)}
	}
	leadingUpper := len(s) > 0 && unicode.IsUpper(s[0])
	out := make([]int, 0, len(s)+1)
	for i := 0; i <= len(s); i++ {
		if i == 0 && leadingUpper {
			continue
		}
		out = append(out, i)
	}
	return out
}

func wordCountOf(s []rune) int { return wordCount(s) }

// --- rune-slice string surgery, ported from
// original_source/utils/src/string_utils.rs ---------------------------------

func cloneRunes(s []rune) []rune {
	out := make([]rune, len(s))
	copy(out, s)
	return out
}

func containsRune(s []rune, ch rune) bool {
	return indexOfRune(s, ch) >= 0
}

func indexOfRune(s []rune, ch rune) int {
	for i, r := range s {
		if r == ch {
			return i
		}
	}
	return -1
}

func lastIndexOfRune(s []rune, ch rune) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ch {
			return i
		}
	}
	return -1
}

func afterLast(s []rune, ch rune) []rune {
	idx := lastIndexOfRune(s, ch)
	if idx < 0 {
		return nil
	}
	return cloneRunes(s[idx+1:])
}

func beforeLast(s []rune, ch rune) []rune {
	idx := lastIndexOfRune(s, ch)
	if idx < 0 {
		return nil
	}
	return cloneRunes(s[:idx])
}

func afterFirst(s []rune, ch rune) []rune {
	idx := indexOfRune(s, ch)
	if idx < 0 {
		return nil
	}
	return cloneRunes(s[idx+1:])
}

// afterVecSequence applies afterFirst for each character in seq in turn.
func afterVecSequence(s []rune, seq []rune) []rune {
	cur := s
	for _, ch := range seq {
		cur = afterFirst(cur, ch)
	}
	return cur
}

// beforeVecSequenceInclusive returns the prefix of s up to (and not
// including) the point where afterVecSequence(s, seq) begins.
func beforeVecSequenceInclusive(s []rune, seq []rune) []rune {
	after := afterVecSequence(s, seq)
	if len(after) == 0 {
		return cloneRunes(s)
	}
	// after is always a suffix of s, so it begins len(after) runes from the end.
	return cloneRunes(s[:len(s)-len(after)])
}

func indexOfSubsequence(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func insertRune(s []rune, ch rune, idx int) []rune {
	if idx >= len(s) {
		out := cloneRunes(s)
		return append(out, ch)
	}
	out := make([]rune, 0, len(s)+1)
	out = append(out, s[:idx]...)
	out = append(out, ch)
	out = append(out, s[idx:]...)
	return out
}

func addSpacesInSequence(seq []rune, nbSpaces int) []rune {
	if len(seq) == 0 {
		return seq
	}
	out := make([]rune, 0, len(seq)+nbSpaces)
	left := nbSpaces
	for i := 0; i < len(seq)-1; i++ {
		out = append(out, seq[i])
		if seq[i] == ' ' || seq[i+1] == ' ' {
			continue
		}
		if left > 0 {
			out = append(out, ' ')
			left--
		}
	}
	out = append(out, seq[len(seq)-1])
	return out
}
