package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimatingCounter(t *testing.T) {
	counter, err := NewCounter(TokenizerEstimate)
	require.NoError(t, err)
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"test", 1},
		{"testing", 2},
		{"The quick brown fox jumps over the lazy dog.", 11},
		{string(make([]byte, 100)), 25},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, counter.Count(tt.input), "Count(%q)", tt.input)
	}
}

func TestEstimate_RoundsBytesUp(t *testing.T) {
	require.Equal(t, 0, Estimate(""))
	require.Equal(t, 1, Estimate("🟢"))
	require.Equal(t, 2, Estimate("abcde"))
}

func TestCharCounter(t *testing.T) {
	counter, err := NewCounter(TokenizerChars)
	require.NoError(t, err)
	for _, tt := range []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello", 5},
		{"🟢 On Track", 10},
	} {
		require.Equal(t, tt.want, counter.Count(tt.input), "Count(%q)", tt.input)
	}
}

func TestNewCounter_DefaultAndUnknown(t *testing.T) {
	counter, err := NewCounter("")
	require.NoError(t, err)
	require.Equal(t, 1, counter.Count("test"))

	_, err = NewCounter("bpe")
	require.ErrorContains(t, err, `unknown token counter "bpe"`)
}

var benchInput = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)

func BenchmarkEstimatingCounter(b *testing.B) {
	counter := &estimatingCounter{}
	b.ResetTimer()
	for b.Loop() {
		counter.Count(benchInput)
	}
}
