package worker

import (
	"context"
	"fmt"

	"gofinances/internal/dashboard"
	"gofinances/internal/events"
	applog "gofinances/internal/log"
)

// Consumer delivers change notifications until ctx ends.
type Consumer interface {
	ConsumeTransactionRecorded(ctx context.Context, handler func(context.Context, events.TransactionRecorded) error) error
}

// RefreshWorker reloads the dashboard when the stored list changes. A change
// notification is handled like a focus event.
type RefreshWorker struct {
	consumer Consumer
	screen   *dashboard.Screen
	logger   *applog.Logger
}

func NewRefreshWorker(consumer Consumer, screen *dashboard.Screen) *RefreshWorker {
	return &RefreshWorker{
		consumer: consumer,
		screen:   screen,
		logger:   applog.Default(applog.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or the consumer fails.
func (w *RefreshWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Refresh worker started")
	err := w.consumer.ConsumeTransactionRecorded(ctx, w.HandleTransactionRecorded)
	w.logger.InfoContext(ctx, "Refresh worker stopped", applog.FieldError, err)
	return err
}

// HandleTransactionRecorded refreshes the screen if msg concerns the key it
// shows. Messages for other keys are acknowledged and ignored.
func (w *RefreshWorker) HandleTransactionRecorded(ctx context.Context, msg events.TransactionRecorded) error {
	if msg.Key != w.screen.Loader().Key() {
		w.logger.DebugContext(ctx, "Ignoring change for another key",
			applog.FieldStorageKey, msg.Key)
		return nil
	}

	st, err := w.screen.Focus(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		// A failed load is already a published state; redelivery would not help.
		w.logger.WarnContext(ctx, "Refresh after change failed",
			applog.FieldRecordID, msg.ID,
			applog.FieldError, err)
		return nil
	}

	w.logger.InfoContext(ctx, "Dashboard refreshed after change",
		applog.FieldRecordID, msg.ID,
		applog.FieldGeneration, st.Generation,
		applog.FieldCount, len(st.Transactions))
	return nil
}

func (w *RefreshWorker) String() string {
	return fmt.Sprintf("RefreshWorker(%s)", w.screen.Loader().Key())
}
