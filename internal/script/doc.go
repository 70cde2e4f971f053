// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script loads and runs shellout script files: an ordered list of
// named steps, each a single command line that may contain pipes. Scripts
// are written in YAML or, with environment-variable interpolation, in HCL;
// the format is chosen by file extension. Steps run sequentially and the
// first failure aborts the script unless keep_going is set.
package script
