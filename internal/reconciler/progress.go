package reconciler

import "time"

// Step names reported to progress callbacks
const (
	StepLoadRevenue  = "load revenue workbook"
	StepLoadForecast = "load forecast workbook"
	StepFilter       = "apply filters"
	StepAggregate    = "aggregate"
)

var pipelineSteps = []string{StepLoadRevenue, StepLoadForecast, StepFilter, StepAggregate}

// Progress tracks one run of the dashboard pipeline
type Progress struct {
	RunID           string        `json:"run_id"`
	TotalSteps      int           `json:"total_steps"`
	CompletedSteps  int           `json:"completed_steps"`
	CurrentStep     string        `json:"current_step"`
	PercentComplete float64       `json:"percent_complete"`
	StartTime       time.Time     `json:"start_time"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
	RecordsLoaded   int           `json:"records_loaded"`
}

// ProgressCallback is called before each step and once when the run completes
type ProgressCallback func(Progress)

type progressTracker struct {
	progress  Progress
	callbacks []ProgressCallback
}

func newProgressTracker(runID string, callbacks []ProgressCallback) *progressTracker {
	return &progressTracker{
		progress: Progress{
			RunID:      runID,
			TotalSteps: len(pipelineSteps),
			StartTime:  time.Now(),
		},
		callbacks: callbacks,
	}
}

func (p *progressTracker) start(step string) {
	p.progress.CurrentStep = step
	p.notify()
}

func (p *progressTracker) done(records int) {
	p.progress.CompletedSteps++
	p.progress.RecordsLoaded += records
	if p.progress.CompletedSteps == p.progress.TotalSteps {
		p.progress.CurrentStep = "completed"
		p.notify()
	}
}

func (p *progressTracker) notify() {
	if len(p.callbacks) == 0 {
		return
	}
	p.progress.ElapsedTime = time.Since(p.progress.StartTime)
	if p.progress.TotalSteps > 0 {
		p.progress.PercentComplete = float64(p.progress.CompletedSteps) / float64(p.progress.TotalSteps) * 100
	}
	for _, cb := range p.callbacks {
		cb(p.progress)
	}
}
