// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sink defines the line-consuming boundary between a running
// process and its caller. A Sink receives decoded output lines on two
// independent streams (stdout and stderr), records the terminal exit code,
// and transitions open → closed exactly once. Feeding a closed Sink is a
// programming error and panics.
package sink
