// Package audio decodes raw 16-bit PCM speech payloads and plays them
// through a single process-wide output context.
//
// The decoder is a pure function of its inputs. The playback context is
// lazily initialized on first use and fixed at 24kHz mono, matching the
// format produced by the remote speech generator.
package audio
