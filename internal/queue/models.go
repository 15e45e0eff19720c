package queue

import (
	"math"
	"strings"
	"time"
)

// JobStatus represents the lifecycle of a job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

var allJobStatuses = []JobStatus{JobQueued, JobProcessing, JobCompleted, JobFailed}

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allJobStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// StageStatus represents the lifecycle of a single stage record.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in-progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// rank orders stage statuses for the forward-only transition check.
func (s StageStatus) rank() int {
	switch s {
	case StagePending:
		return 0
	case StageInProgress:
		return 1
	case StageCompleted, StageFailed:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether the status ends a stage's lifecycle.
func (s StageStatus) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// StageName identifies one step of the fixed pipeline.
type StageName string

const (
	StageUploaded            StageName = "uploaded"
	StageAutoEditing         StageName = "auto-editing"
	StageTranscribing        StageName = "transcribing"
	StageStoringTranscript   StageName = "storing-transcript"
	StageDetectingHighlights StageName = "detecting-highlights"
	StageGeneratingPlan      StageName = "generating-plan"
	StageRendering           StageName = "rendering"
	StageUploading           StageName = "uploading"
	StageDone                StageName = "completed"
)

var stageOrder = []StageName{
	StageUploaded,
	StageAutoEditing,
	StageTranscribing,
	StageStoringTranscript,
	StageDetectingHighlights,
	StageGeneratingPlan,
	StageRendering,
	StageUploading,
	StageDone,
}

// StageOrder returns the fixed, totally ordered stage sequence.
func StageOrder() []StageName {
	cp := make([]StageName, len(stageOrder))
	copy(cp, stageOrder)
	return cp
}

// StageIndex returns the position of a stage in the pipeline order.
func StageIndex(name StageName) (int, bool) {
	for i, stage := range stageOrder {
		if stage == name {
			return i, true
		}
	}
	return 0, false
}

// ExecutableStages returns the stages the orchestrator drives itself:
// everything between ingestion (pre-completed) and the terminal marker.
func ExecutableStages() []StageName {
	return []StageName{
		StageAutoEditing,
		StageTranscribing,
		StageStoringTranscript,
		StageDetectingHighlights,
		StageGeneratingPlan,
		StageRendering,
		StageUploading,
	}
}

// MediaInfo carries the probed input metadata recorded at ingestion.
type MediaInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
	Format          string
	Checksum        string
}

// JobError captures the stage at which a job failed, for diagnostics and resume.
type JobError struct {
	Stage   StageName
	Message string
	Stack   string
	At      time.Time
}

// StageRecord tracks one stage's status history for a job.
type StageRecord struct {
	Name       StageName
	Status     StageStatus
	StartedAt  *time.Time
	EndedAt    *time.Time
	OutputPath string
	Error      string
}

// Job is one end-to-end processing request for one input video.
type Job struct {
	ID            string
	UserID        string
	InputPath     string
	Status        JobStatus
	Media         MediaInfo
	Error         *JobError
	ResultRef     string
	LastHeartbeat *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Stages is ordered by pipeline position. Populated by GetJob.
	Stages []StageRecord
}

// StageByName returns the stage record with the given name.
func (j *Job) StageByName(name StageName) (*StageRecord, bool) {
	for i := range j.Stages {
		if j.Stages[i].Name == name {
			return &j.Stages[i], true
		}
	}
	return nil, false
}

// CurrentStage derives the most recent stage that is in-progress or completed,
// scanning stage records in reverse pipeline order. Jobs with no started stage
// report the ingestion stage. This is a pure projection of stage history,
// which is what makes resume possible without a separate checkpoint log.
func (j *Job) CurrentStage() StageName {
	for i := len(j.Stages) - 1; i >= 0; i-- {
		switch j.Stages[i].Status {
		case StageInProgress, StageCompleted, StageFailed:
			return j.Stages[i].Name
		}
	}
	return StageUploaded
}

// Progress reports pipeline completion as a percentage of stage positions.
func (j *Job) Progress() int {
	idx, ok := StageIndex(j.CurrentStage())
	if !ok {
		return 0
	}
	return int(math.Round(float64(idx) / float64(len(stageOrder)-1) * 100))
}

// ArtifactBefore returns the most recent completed output path produced by a
// stage earlier than name, falling back to the job's input path.
func (j *Job) ArtifactBefore(name StageName) string {
	target, ok := StageIndex(name)
	if !ok {
		return j.InputPath
	}
	artifact := j.InputPath
	for _, rec := range j.Stages {
		idx, ok := StageIndex(rec.Name)
		if !ok || idx >= target {
			continue
		}
		if rec.Status == StageCompleted && rec.OutputPath != "" {
			artifact = rec.OutputPath
		}
	}
	return artifact
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
