// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a slog.Logger in a context.Context so that every
// component logs through an explicitly threaded logger rather than a
// process-wide singleton. The default log level is read from an environment
// variable derived from the executable name, e.g. SHELLOUT_LOG_LEVEL for a
// binary named "shellout". Recognized values are DEBUG, INFO, WARN and
// ERROR; anything else defaults to WARN.
package ctxlog
