// Package textutil normalizes text taken from file names and metadata tags.
//
// File names are used as record keys, so two byte sequences that render the
// same (NFC vs NFD, common on files copied from macOS volumes) must map to
// the same key. Tag text from cameras often carries padding and control
// characters that are stripped before storage.
package textutil
