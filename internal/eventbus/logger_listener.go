package eventbus

import (
	"context"

	"github.com/annel0/voxel-studio/internal/logging"
)

// StartLoggingListener подписывается на все события шины и пишет их в лог.
// BlocksChanged приходит на каждый штрих инструмента, поэтому его тело
// в лог не попадает — только метаданные. Функция неблокирующая.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		if ev.EventType == EventBlocksChanged {
			logging.Debug("[EventBus] %s %s src=%s prio=%d", ev.ID, ev.EventType, ev.Source, ev.Priority)
			return
		}
		logging.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 LoggingListener: подписка на все события активирована")
	return nil
}
