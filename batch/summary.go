package batch

import (
	"log/slog"

	"github.com/sasha-s/go-deadlock"
)

// Failure describes one repository which could not be mirrored.
type Failure struct {
	Name   string
	Reason string
}

// Summary is the aggregate result of one mirror run. Outcomes are recorded
// in processing order. Summary is safe for concurrent use.
type Summary struct {
	mu         deadlock.Mutex
	successful []string
	failed     []Failure
}

// RecordSuccess records a mirrored repository.
func (s *Summary) RecordSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successful = append(s.successful, name)
}

// RecordFailure records a repository which failed to mirror.
func (s *Summary) RecordFailure(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = append(s.failed, Failure{Name: name, Reason: err.Error()})
}

// Successful returns the names of the mirrored repositories in order.
func (s *Summary) Successful() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.successful...)
}

// Failed returns the recorded failures in order.
func (s *Summary) Failed() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Failure(nil), s.failed...)
}

// Total returns the number of recorded outcomes.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.successful) + len(s.failed)
}

// Ok reports whether every repository was mirrored successfully, it decides
// the process exit status.
func (s *Summary) Ok() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.failed) == 0
}

// Log emits the run summary, one error line per failed repository.
func (s *Summary) Log(log *slog.Logger) {
	log.Info("mirror run summary", "successful", len(s.Successful()), "failed", len(s.Failed()))
	for _, f := range s.Failed() {
		log.Error("repository failed", "repo", f.Name, "err", f.Reason)
	}
}
