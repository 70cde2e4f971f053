// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
)

// Watch drains the signal channel and cancels the context on the second
// occurrence of any one signal. Watch returns once it has cancelled.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})
	for sig := range sigCh {
		if _, ok := seen[sig]; ok {
			ctxlog.Logger(ctx).Info("watchdog", "detail", "repeated signal, cancelling", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "signal received, waiting for children", "signal", sig.String())

		seen[sig] = struct{}{}
	}
}
