package fight

import (
	"context"
	"time"
)

// armCountdownLocked schedules the one-shot respawn sequence for the
// victim. The task is keyed by victim identity: a second death before a
// prior countdown completes supersedes the stale timer instead of
// racing it.
func (s *Service) armCountdownLocked(victimID string) {
	if cancel, ok := s.countdowns[victimID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.countdowns[victimID] = cancel
	go s.runCountdown(ctx, victimID)
}

// runCountdown emits countdown values 3..0 one tick apart, then performs
// the respawn mutation and emits a final 0 that clients render as "GO".
// Every step re-checks that the victim still exists so a disconnect
// mid-sequence stops the broadcasts instead of announcing stale progress.
func (s *Service) runCountdown(ctx context.Context, victimID string) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.disarm(ctx, victimID)

	for count := 3; count >= 0; count-- {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if _, ok := s.fighters[victimID]; !ok {
			s.mu.Unlock()
			return
		}
		s.emit.ToRoom("countdown", countdownBody{Count: count})
		s.mu.Unlock()
	}

	select {
	case <-ctx.Done():
		return
	case <-ticker.C:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fighters[victimID]
	if !ok {
		return
	}
	f.Health, f.Energy = 100, 0
	h, e := f.Health, f.Energy
	s.emit.ToRoom("state-sync", stateSyncBody{ID: victimID, State: StatePatch{Health: &h, Energy: &e}})
	s.emit.ToRoom("countdown", countdownBody{Count: 0}) // GO
}

// disarm clears the bookkeeping entry, but only if it still belongs to
// this run: a superseding countdown may have replaced it.
func (s *Service) disarm(ctx context.Context, victimID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() == nil {
		if cancel, ok := s.countdowns[victimID]; ok {
			cancel()
			delete(s.countdowns, victimID)
		}
	}
}
