// Package file provides file-based configuration and prompt storage.
//
// Configuration lives in a TOML file under the lexquery config directory.
// Prompt templates live as individual editable text files with embedded
// defaults created on first use.
package file
