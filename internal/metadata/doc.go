// Package metadata turns raw metadata-tool output into typed record payloads.
//
// Extractors produce a Document (tag → raw value) per file: ExifTool shells
// out to `exiftool -j` and NativeEXIF decodes JPEG/TIFF EXIF in-process as a
// fallback. The Sanitizer maps configured tags onto the closed Field set and
// coerces each value (dates, flash flags, durations, human-readable sizes)
// independently, so one malformed tag never loses the rest of the record.
package metadata
