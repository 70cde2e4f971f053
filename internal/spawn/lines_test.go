// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedLinesUniversalNewlines(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "unix newlines",
			input: "a\nb\nc\n",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "windows newlines",
			input: "a\r\nb\r\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "bare carriage returns",
			input: "a\rb\rc\r",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "mixed",
			input: "a\r\nb\rc\n",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "unterminated final line",
			input: "a\nno newline",
			want:  []string{"a", "no newline"},
		},
		{
			name:  "empty lines preserved",
			input: "a\n\nb\n",
			want:  []string{"a", "", "b"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "utf8 content",
			input: "héllo\nwörld\n",
			want:  []string{"héllo", "wörld"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string

			err := feedLines(strings.NewReader(tc.input), func(line string) {
				got = append(got, line)
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFeedLinesOversizedLine(t *testing.T) {
	const tail = 100

	input := strings.Repeat("a", maxLineSize+tail) + "\nlast\n"

	var got []string

	err := feedLines(strings.NewReader(input), func(line string) {
		got = append(got, line)
	})
	require.NoError(t, err, "an oversized line must not abort the feed")

	require.Len(t, got, 3, "oversized line is delivered in chunks")
	assert.Len(t, got[0], maxLineSize)
	assert.Len(t, got[1], tail)
	assert.Equal(t, "last", got[2])

	total := 0
	for _, line := range got[:2] {
		total += len(line)
	}

	assert.Equal(t, maxLineSize+tail, total, "no output bytes lost")
}

func TestFeedLinesOversizedLineExactBoundary(t *testing.T) {
	input := strings.Repeat("b", maxLineSize) + "\nnext\n"

	var got []string

	err := feedLines(strings.NewReader(input), func(line string) {
		got = append(got, line)
	})
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.Len(t, got[0], maxLineSize)
	assert.Equal(t, "next", got[len(got)-1])
}
