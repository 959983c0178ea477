// Package reconcile decides, per file, whether its sanitized metadata becomes
// a new record, fills blanks on an existing record, or changes nothing.
//
// Stored values are never overwritten: an update only carries fields whose
// stored value is NULL, an empty string or numeric zero. Treating zero as
// blank conflates a real zero duration or size with an absent one; that
// ambiguity is kept intentionally so existing databases behave the same.
package reconcile
