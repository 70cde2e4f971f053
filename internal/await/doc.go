// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package await provides a single-owner completion primitive that bridges
// asynchronous work into blocking calls. A Completion is resolved or
// rejected exactly once by the goroutine performing the work, and waited on
// by the caller that needs the result synchronously. There is no built-in
// timeout: a Completion that never resolves blocks its waiter indefinitely,
// and bounded waiting is a caller concern.
package await
