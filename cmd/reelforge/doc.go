// Command reelforge is the operator CLI for the video pipeline: it submits
// jobs, inspects progress, retries failures, and manages configuration. It
// talks to a running reelforged over its HTTP API and falls back to direct
// store access when the daemon is down.
package main
