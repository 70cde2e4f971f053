// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress defines the real-time event stream emitted while a
// script executes: step lifecycle transitions and individual output lines.
// The TUI and other listeners consume these events; reporting is always
// non-blocking so a slow listener can never stall a running process.
package progress
