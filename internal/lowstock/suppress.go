package lowstock

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const suppressScope = "lowstock"

type claimGuard interface {
	CheckAndMark(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

// SuppressingSink drops alerts for a unit and stock level that were already delivered
// within the guard's TTL. Guard failures fail open.
//
// The claim is keyed on unit and level only, not on the order. A unit that is
// restocked and sells back down to an already-alerted level inside the TTL stays
// silent until the claim expires; a different level alerts at once.
type SuppressingSink struct {
	guard claimGuard
	next  Sink
	logg  *logger.Logger
}

// NewSuppressingSink wraps next with the claim guard.
func NewSuppressingSink(guard claimGuard, next Sink, logg *logger.Logger) (*SuppressingSink, error) {
	if guard == nil {
		return nil, errors.New("claim guard required")
	}
	if next == nil {
		return nil, errors.New("next sink required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SuppressingSink{guard: guard, next: next, logg: logg}, nil
}

func (s *SuppressingSink) Deliver(ctx context.Context, event Event) error {
	level := event.Level()
	already, err := s.guard.CheckAndMark(ctx, suppressScope, level)
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, event.fields()), "error", err.Error()), "low stock suppression check failed")
		return s.next.Deliver(ctx, event)
	}
	if already {
		return ErrSuppressed
	}
	if err := s.next.Deliver(ctx, event); err != nil {
		if releaseErr := s.guard.Release(ctx, suppressScope, level); releaseErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", releaseErr.Error()), "low stock suppression release failed")
		}
		return err
	}
	return nil
}
