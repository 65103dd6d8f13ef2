package logger

import "time"

// Stage times one step of the dashboard pipeline and logs its duration when done
type Stage struct {
	logger  Logger
	name    string
	started time.Time
}

// StartStage begins timing a named stage
func StartStage(log Logger, name string) *Stage {
	if log == nil {
		log = GetGlobalLogger()
	}
	log.WithField("stage", name).Debug("Stage started")
	return &Stage{logger: log, name: name, started: time.Now()}
}

// Elapsed returns the time spent in the stage so far
func (s *Stage) Elapsed() time.Duration {
	return time.Since(s.started)
}

// Done logs the stage duration with any extra fields and returns it
func (s *Stage) Done(fields Fields) time.Duration {
	elapsed := s.Elapsed()
	out := Fields{"stage": s.name, "duration": elapsed.String()}
	for k, v := range fields {
		out[k] = v
	}
	s.logger.WithFields(out).Debug("Stage completed")
	return elapsed
}

// Fail logs the stage as failed and returns its duration
func (s *Stage) Fail(err error) time.Duration {
	elapsed := s.Elapsed()
	s.logger.WithError(err).WithFields(Fields{
		"stage":    s.name,
		"duration": elapsed.String(),
	}).Warn("Stage failed")
	return elapsed
}
