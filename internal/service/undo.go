package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CommitFunc runs when a staged completion's undo window elapses.
type CommitFunc func(token string, taskID uint)

type stagedCompletion struct {
	token  string
	taskID uint
	timer  *time.Timer
}

// CompletionStager holds completions in a pending state for the duration of
// the undo window. A staged task is hidden from views but none of the
// point/recurrence logic has run yet; exactly one of commit or cancel
// happens per staged task, decided by whoever removes the entry first.
type CompletionStager struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[uint]*stagedCompletion
	commit  CommitFunc
}

func NewCompletionStager(delay time.Duration, commit CommitFunc) *CompletionStager {
	return &CompletionStager{
		delay:   delay,
		pending: make(map[uint]*stagedCompletion),
		commit:  commit,
	}
}

// Stage begins the undo window for a task and returns an opaque token for
// cancellation. Staging an already staged task is rejected.
func (s *CompletionStager) Stage(taskID uint) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[taskID]; ok {
		return "", false
	}

	staged := &stagedCompletion{
		token:  uuid.NewString(),
		taskID: taskID,
	}
	staged.timer = time.AfterFunc(s.delay, func() { s.fire(taskID, staged.token) })
	s.pending[taskID] = staged

	log.Debug().Uint("task", taskID).Dur("window", s.delay).Msg("completion staged")
	return staged.token, true
}

// fire commits the staged completion when the timer elapses, unless it was
// cancelled first. The map removal under the lock is the commit-or-cancel
// arbiter: only one caller ever sees the entry.
func (s *CompletionStager) fire(taskID uint, token string) {
	s.mu.Lock()
	staged, ok := s.pending[taskID]
	if !ok || staged.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.pending, taskID)
	s.mu.Unlock()

	s.commit(token, taskID)
}

// Cancel removes a staged completion by task id before it commits.
// Returns false if nothing was pending, including after a commit already
// fired.
func (s *CompletionStager) Cancel(taskID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, ok := s.pending[taskID]
	if !ok {
		return false
	}
	staged.timer.Stop()
	delete(s.pending, taskID)
	log.Debug().Uint("task", taskID).Msg("completion cancelled")
	return true
}

// CancelToken cancels by the token handed out at staging time.
func (s *CompletionStager) CancelToken(token string) (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, staged := range s.pending {
		if staged.token == token {
			staged.timer.Stop()
			delete(s.pending, id)
			log.Debug().Uint("task", id).Msg("completion cancelled")
			return id, true
		}
	}
	return 0, false
}

// IsPending reports whether a task is inside its undo window.
func (s *CompletionStager) IsPending(taskID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[taskID]
	return ok
}
