// Package naming maps source videos to output, log, and original paths.
//
// A source "<dir>/<base>.<ext>" converts to "<output>/<base>.mp4", logs to
// "<log_folder>/<base>.log", and is found again during validation by trying
// each recognized extension against <base>, lowercase first, then uppercase.
// [CollisionResolver] keeps two sources with the same base name from writing
// the same output within one run.
package naming
