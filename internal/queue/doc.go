// Package queue persists jobs and their per-stage checkpoint ledger in
// SQLite. The store doubles as the work queue: workers claim queued jobs
// with a guarded status transition, heartbeat while processing, and stale
// claims are returned to the queue for resume.
//
// Stage records only move forward (pending -> in-progress -> completed or
// failed), so a job's history is append-only in effect and its current
// stage and progress are pure projections of that history.
package queue
