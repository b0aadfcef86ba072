package recoversecret_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/challenge/recoversecret"
)

type fakeDict map[string]bool

func (d fakeDict) Has(word string) bool { return d[word] }

func TestSolveSequenceSingleWord(t *testing.T) {
	instance := recoversecret.Instance{
		WordCount:  1,
		Letters:    "iffiiilfatroridato",
		TupleSizes: []int{3, 3, 3, 3, 3, 3},
	}
	got, err := recoversecret.SolveSequence(instance)
	require.NoError(t, err)
	assert.True(t, recoversecret.Validate(instance, got))
}

func TestSolveSequencePreservesCase(t *testing.T) {
	instance := recoversecret.Instance{
		WordCount:  1,
		Letters:    "rTlThoTzo",
		TupleSizes: []int{3, 3, 3},
	}
	got, err := recoversecret.SolveSequence(instance)
	require.NoError(t, err)
	assert.True(t, recoversecret.Validate(instance, got))
}

func TestSolveSequencePadsToWordCount(t *testing.T) {
	instance := recoversecret.Instance{
		WordCount:  6,
		Letters:    "iffiiilfatroridato",
		TupleSizes: []int{3, 3, 3, 3, 3, 3},
	}
	got, err := recoversecret.SolveSequence(instance)
	require.NoError(t, err)
	assert.True(t, recoversecret.Validate(instance, got))
}

func TestSolveSentenceUsesDictionary(t *testing.T) {
	instance := recoversecret.Instance{
		WordCount:  2,
		Letters:    "C'echCt chut cou't htu'ehuest o",
		TupleSizes: []int{5, 6, 5, 4, 2, 4, 5},
	}
	dict := fakeDict{"c'est": true, "chou": true}
	got, err := recoversecret.SolveSentence(instance, dict)
	require.NoError(t, err)
	assert.True(t, recoversecret.Validate(instance, got))
}

func TestSolveSentenceNoSolutionWhenDictionaryEmpty(t *testing.T) {
	instance := recoversecret.Instance{
		WordCount:  2,
		Letters:    "C'echCt chut cou't htu'ehuest o",
		TupleSizes: []int{5, 6, 5, 4, 2, 4, 5},
	}
	_, err := recoversecret.SolveSentence(instance, fakeDict{})
	assert.Error(t, err)
}

func TestValidateRejectsWordCountMismatch(t *testing.T) {
	instance := recoversecret.Instance{WordCount: 2, Letters: "abc", TupleSizes: []int{3}}
	assert.False(t, recoversecret.Validate(instance, "oneword"))
}

func TestValidateRejectsOutOfOrderTuple(t *testing.T) {
	instance := recoversecret.Instance{WordCount: 1, Letters: "abc", TupleSizes: []int{3}}
	assert.False(t, recoversecret.Validate(instance, "cba"))
	assert.True(t, recoversecret.Validate(instance, "azbzcz"))
}

func TestGenerateProducesValidatableInstance(t *testing.T) {
	instance := recoversecret.Generate(1, rand.New(rand.NewSource(7)))
	total := 0
	for _, s := range instance.TupleSizes {
		total += s
	}
	assert.Equal(t, total, len([]rune(instance.Letters)))
	assert.GreaterOrEqual(t, len(instance.TupleSizes), 5)
	assert.LessOrEqual(t, len(instance.TupleSizes), 9)
}
