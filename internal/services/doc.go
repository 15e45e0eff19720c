// Package services holds the shared error taxonomy and context plumbing used
// by the external-collaborator clients and the workflow orchestrator.
//
// Errors are tagged with sentinel markers (validation, transient, fatal,
// configuration, not-found) so the retry policy and the orchestrator can
// classify a failure without inspecting collaborator-specific types.
package services
