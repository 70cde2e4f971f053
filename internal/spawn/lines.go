// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"bufio"
	"bytes"
	"io"
)

const (
	initialScanBuffer = 64 * 1024
	maxLineSize       = 8 * 1024 * 1024 // 8MB
)

// scanUniversalLines is a bufio.SplitFunc that splits on \n, \r\n and bare
// \r. An unterminated final line is still emitted at EOF. A line longer
// than maxLineSize is emitted in maxLineSize chunks rather than erroring,
// so the pipe keeps draining and the child is never blocked mid-write.
func scanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		// Bare \r needs one byte of lookahead to distinguish it from \r\n,
		// unless the buffer is already full and cannot grow.
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF || len(data) >= maxLineSize:
			return i + 1, data[:i], nil
		default:
			return 0, nil, nil
		}
	}

	if atEOF {
		return len(data), data, nil
	}

	if len(data) >= maxLineSize {
		return maxLineSize, data[:maxLineSize], nil
	}

	return 0, nil, nil
}

// feedLines reads r to EOF, splitting it into lines with universal newline
// semantics, and forwards each line to add in emission order.
func feedLines(r io.Reader, add func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialScanBuffer), maxLineSize)
	scanner.Split(scanUniversalLines)

	for scanner.Scan() {
		add(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		// The writer must never be left blocked on a full pipe: consume
		// the remainder even though it can no longer be delivered.
		_, _ = io.Copy(io.Discard, r)

		return err //nolint:wrapcheck
	}

	return nil
}
