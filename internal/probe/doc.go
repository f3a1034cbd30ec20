// Package probe extracts dimensions and audio/video bitrates from MP4 files
// by running an external prober (mp4info) and parsing its track table.
//
// Results are cached per absolute path and reused until the file's
// modification time moves past the time it was probed. A prober that is
// missing or cannot open a file yields the empty [Result]: for planning
// purposes such a file simply has no metadata.
package probe
