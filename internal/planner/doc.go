// Package planner decides, for one conversion, which streams are re-encoded
// and which are stream-copied, and carries the quality setting into the
// plan that the ffmpeg package turns into a command.
//
// A stream is copied only when it was not requested for re-encoding and the
// source and output containers match; copying across containers is never
// planned. The quality (CRF) argument is added only when video is
// re-encoded into an MP4 output.
package planner
