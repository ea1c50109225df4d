package orders

import (
	"context"
	"errors"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"gorm.io/gorm"
)

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// stepper paces the fulfillment simulation. Tests swap it for an instant one.
type stepper interface {
	Wait()
}

type realStepper struct {
	interval time.Duration
}

func (s realStepper) Wait() { time.Sleep(s.interval) }

// scheduleProgression launches the simulated fulfillment timeline for a new
// order: one step per status in the standard sequence. Each tick re-reads the
// order inside its own transaction, so a cancellation between ticks stops the
// simulation instead of being overwritten.
func (s *service) scheduleProgression(orderID, userID int64) {
	go func() {
		ctx := s.logg.WithOrderID(context.Background(), orderID)

		for _, status := range enums.ProgressionSequence {
			s.step.Wait()

			advanced, err := s.tick(ctx, orderID, userID, status)
			if err != nil {
				s.logg.Error(ctx, "status progression tick failed", err)
				return
			}
			if !advanced {
				return
			}
		}
	}()
}

// tick attempts one simulated transition. It reports false without error when
// the order has reached a terminal state and the timeline should stop.
func (s *service) tick(ctx context.Context, orderID, userID int64, status enums.OrderStatus) (bool, error) {
	var advanced bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := NewRepository(tx)

		order, err := orderRepo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order vanished during progression")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order for tick")
		}
		if order.Status.IsTerminal() {
			return nil
		}

		updated, err := orderRepo.UpdateOrderStatusIfLive(ctx, orderID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance order status")
		}
		if !updated {
			// lost the race with a concurrent terminal transition
			return nil
		}
		if err := orderRepo.AppendStatus(ctx, orderID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append status entry")
		}
		advanced = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if advanced {
		s.publishStatus(ctx, userID, orderID, status)
	}
	return advanced, nil
}
