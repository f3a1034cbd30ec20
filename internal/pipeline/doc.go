// Package pipeline orchestrates a batch: discover sources, convert each one
// sequentially, report a summary, then run the post-batch steps (validation,
// report, cleanup, notification).
//
// Per-file failures never stop the batch. A failed file's partial output is
// deleted and the file is counted in the summary; only configuration and
// setup errors make Run return an error.
package pipeline
