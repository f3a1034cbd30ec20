// Package ffmpeg turns conversion plans into encoder commands and runs them.
//
// Command shape:
//
//	<encoder> -i <input> [-crf N] [-codec:audio copy] [-codec:video copy] -y <output>
//
// [Execute] runs one command through a runner.Runner, streaming combined
// output to a per-file log sink. A nonzero exit becomes an [*ExecutionError]
// carrying the exit code, an output tail, and a hint from [Classify]. There
// are no retries here; a failed invocation fails its file.
package ffmpeg
