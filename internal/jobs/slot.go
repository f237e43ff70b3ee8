package jobs

import "sync"

// slot admits at most one mutating operation at a time. Callers that find
// it taken are rejected, never queued.
type slot struct {
	mu     sync.Mutex
	holder Operation
	held   bool
}

// acquire takes the slot for op and returns its release function, which
// is safe to call more than once.
func (s *slot) acquire(op Operation) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held {
		return nil, NewError(CodeBusy, string(s.holder)+" is in progress", nil).
			WithContext("holder", s.holder)
	}
	s.held = true
	s.holder = op

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.held = false
			s.holder = ""
			s.mu.Unlock()
		})
	}, nil
}

// current reports the operation holding the slot, if any.
func (s *slot) current() (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder, s.held
}
