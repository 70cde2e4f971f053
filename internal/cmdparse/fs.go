// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdparse

import "github.com/spf13/afero"

// FsFactory is a function that returns the afero filesystem used for glob
// expansion. Tests replace it with an in-memory filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}
