// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package spawn owns the lifecycle of a single external OS process: it
// starts the process, decodes and line-splits its output streams into a
// sink, and records the exit status. Public operations block the caller
// while goroutines service the underlying pipes, bridged through
// await.Completion values. A Process is started at most once and is not
// safe for concurrent use without external synchronization.
package spawn
