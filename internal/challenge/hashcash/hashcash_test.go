package hashcash_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/challenge/hashcash"
)

func TestSolveProducesValidProofOfWork(t *testing.T) {
	cases := []struct {
		message    string
		complexity uint8
	}{
		{"hello world", 5},
		{strings.Repeat("é", 38), 5}, // UTF-8 multi-byte text, ~76 bytes
		{"Bonjour monde", 14},
	}

	for _, c := range cases {
		sol, err := hashcash.Solve(context.Background(), c.message, c.complexity, 4, 500)
		require.NoError(t, err)
		assert.True(t, hashcash.Verify(sol.Seed, sol.Hash, c.message, c.complexity),
			"solution for %q at complexity %d did not verify", c.message, c.complexity)
		assert.Equal(t, strings.ToUpper(sol.Hash), sol.Hash)
	}
}

func TestVerifyRejectsWrongHash(t *testing.T) {
	assert.False(t, hashcash.Verify(0, strings.Repeat("F", 32), "hello world", 5))
}

func TestVerifyRejectsInsufficientComplexity(t *testing.T) {
	sol, err := hashcash.Solve(context.Background(), "low bar", 1, 2, 200)
	require.NoError(t, err)
	assert.False(t, hashcash.Verify(sol.Seed, sol.Hash, "low bar", 40))
}

func TestDefaultWorkerCountIsPositive(t *testing.T) {
	assert.Greater(t, hashcash.DefaultWorkerCount(), 0)
}
