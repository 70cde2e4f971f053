// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time terminal user interface for monitoring
// script execution. It shows each step with a status indicator, a spinner
// while running, and the last output line, updating as progress events
// arrive from the script runner.
package tui
