// Package organizer moves media from source trees into date-bucketed
// destination trees.
//
// Each file is classified by name and extension into a destination kind
// (social clip, dashcam recording, photo, video), dated from its device name
// or its capture metadata, and transferred into <root>/<YYYY-MM-DD>/. A file
// whose name already exists at the destination is skipped: nothing is ever
// overwritten or renamed. After a real move the destination's tags and file
// times are stamped with the resolved date on a best-effort basis; stamping
// failures are logged and never undo the move.
package organizer
