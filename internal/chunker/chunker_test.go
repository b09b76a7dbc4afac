package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

func TestWords(t *testing.T) {
	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Nil(t, Words("", 800))
	})

	t.Run("whitespace-only input yields no chunks", func(t *testing.T) {
		assert.Nil(t, Words("  \n\t  ", 800))
	})

	t.Run("single chunk when under the cap", func(t *testing.T) {
		chunks := Words("one two three", 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "one two three", chunks[0])
	})

	t.Run("exact multiple of the cap", func(t *testing.T) {
		chunks := Words(strings.Join(tokens(9), " "), 3)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.Len(t, strings.Fields(c), 3)
		}
	})

	t.Run("remainder lands in the last chunk", func(t *testing.T) {
		chunks := Words(strings.Join(tokens(10), " "), 3)
		require.Len(t, chunks, 4)
		assert.Len(t, strings.Fields(chunks[3]), 1)
	})
}

func TestWordsProperties(t *testing.T) {
	cases := []struct {
		words int
		cap   int
	}{
		{1, 1}, {1, 800}, {50, 7}, {100, 100}, {801, 800}, {1600, 800}, {1601, 800},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d words cap %d", tc.words, tc.cap), func(t *testing.T) {
			input := tokens(tc.words)
			chunks := Words(strings.Join(input, " "), tc.cap)

			wantCount := (tc.words + tc.cap - 1) / tc.cap
			require.Len(t, chunks, wantCount)

			// every chunk but the last is full, none is empty, and the
			// token sequence round-trips
			var rejoined []string
			for i, c := range chunks {
				fields := strings.Fields(c)
				require.NotEmpty(t, fields)
				if i < len(chunks)-1 {
					assert.Len(t, fields, tc.cap)
				}
				rejoined = append(rejoined, fields...)
			}
			assert.Equal(t, input, rejoined)
		})
	}
}
