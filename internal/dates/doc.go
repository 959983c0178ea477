// Package dates decides which capture datetime to trust for a media file.
//
// Metadata tools emit several timestamp fields of varying reliability plus
// sentinel values meaning "unset". The Resolver sanitizes every candidate,
// keeps the oldest survivor, and falls back to timestamps embedded in the file
// name. Resolution never fails loudly: malformed input degrades to "no
// candidate".
package dates
