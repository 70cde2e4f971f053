// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pipe links spawned processes so that each stage's combined
// stdout and stderr bytes feed the next stage's stdin, as in a shell
// pipeline. Piping operates on raw bytes, not lines; only the terminal
// stage's line-split output and exit code reach the caller. Stages run
// concurrently, and a downstream stage closing its input early is
// tolerated the way a shell tolerates a broken pipe.
package pipe
