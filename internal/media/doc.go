// Package media classifies dropped files and resolves their capture dates.
//
// Classification starts from the extension allow-list and is corrected by a
// lightweight magic-byte sniff so a video renamed to .jpg is still routed as
// a video. Capture dates come from EXIF for photo formats, from the QuickTime
// movie header for MP4/MOV containers, then from filename date patterns, and
// finally from the filesystem modification time.
package media
