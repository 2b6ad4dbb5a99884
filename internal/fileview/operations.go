package fileview

import (
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/metrics"
	"github.com/transferdesk/transferdesk/pkg/models"
)

// Operations returns the tracked operations, oldest first.
func (s *Store) Operations() []models.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneOpsLocked()
	out := make([]models.Operation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, *op)
	}
	return out
}

// ClearFinished forgets completed and failed operations.
func (s *Store) ClearFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropFinishedOpsLocked()
	s.publish(events.EventOperation, "")
}

// startOp registers a pending operation and returns its id.
func (s *Store) startOp(kind models.OperationKind, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := &models.Operation{
		ID:        s.opts.NewID(),
		FileName:  name,
		Kind:      kind,
		Status:    models.StatusPending,
		StartedAt: s.opts.Clock(),
	}
	s.ops = append(s.ops, op)
	s.publish(events.EventOperation, op.ID)
	return op.ID
}

func (s *Store) findOpLocked(id string) *models.Operation {
	for _, op := range s.ops {
		if op.ID == id {
			return op
		}
	}
	return nil
}

// runOp moves an operation to in-progress.
func (s *Store) runOp(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op := s.findOpLocked(id); op != nil && !op.Done() {
		op.Status = models.StatusInProgress
		s.publish(events.EventOperation, id)
	}
}

// progressOp records a percentage. Progress never moves backwards and
// stays below 100 until the operation completes.
func (s *Store) progressOp(id string, done, total int64) {
	if total <= 0 {
		return
	}
	pct := int(done * 100 / total)
	if pct > 99 {
		pct = 99
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op := s.findOpLocked(id)
	if op == nil || op.Done() || pct <= op.Progress {
		return
	}
	op.Progress = pct
	s.publish(events.EventOperation, id)
}

// finishOp moves an operation to its terminal status.
func (s *Store) finishOp(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := s.findOpLocked(id)
	if op == nil || op.Done() {
		return
	}
	op.FinishedAt = s.opts.Clock()
	if err != nil {
		op.Status = models.StatusFailed
		op.Error = clientMessage(err)
	} else {
		op.Status = models.StatusCompleted
		op.Progress = 100
	}
	metrics.RecordFileOperation(string(op.Kind), err == nil)
	s.publish(events.EventOperation, id)
}

// pruneOpsLocked drops finished operations older than the TTL.
func (s *Store) pruneOpsLocked() {
	if s.opts.OperationTTL <= 0 {
		return
	}
	cutoff := s.opts.Clock().Add(-s.opts.OperationTTL)
	kept := s.ops[:0]
	for _, op := range s.ops {
		if op.Done() && op.FinishedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, op)
	}
	s.ops = kept
}

func (s *Store) dropFinishedOpsLocked() {
	kept := s.ops[:0]
	for _, op := range s.ops {
		if !op.Done() {
			kept = append(kept, op)
		}
	}
	s.ops = kept
}
