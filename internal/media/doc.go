// Package media defines the media categories, discovered files, and the
// immutable catalog (extension tables and raw-tag field mappings) that every
// component of a run receives explicitly.
package media
