// Package sources finds removable-media directories to organize from.
//
// Discover lists the directories mounted under the candidate roots (/mnt,
// ~/mnt, /media/$USER, /run/media/$USER), Pick lets an operator choose among
// them, and Monitor reacts to partition hotplug events from udev so the watch
// command can organize a card as soon as it is mounted.
package sources
