package server

import (
	"github.com/Viet-ph/redis-ae/ae"
	"github.com/Viet-ph/redis-ae/config"
	"github.com/Viet-ph/redis-ae/internal/info"
)

// statsEveryLoops is how often, in cron runs, the server logs its state.
const statsEveryLoops = 50

// serverCron is the periodic housekeeping timer. It fires config.Hz times
// per second.
func (server *AsyncServer) serverCron(el *ae.EventLoop, _ int64, _ any) int64 {
	info.CronLoops++

	expired := server.store.ActiveExpire(config.ActiveExpireSamples)
	info.ExpiredKeys += int64(expired)

	if info.CronLoops%statsEveryLoops == 0 {
		keys, expires := server.store.GetStoreSize()
		server.logger.Debug().
			Int("clients", len(server.clients)).
			Int("keys", keys).
			Int("expires", expires).
			Int("timers", el.PendingTimers()).
			Log("server cron")
	}

	if server.shutdownAsap {
		server.logger.Info().Log("received shutdown request, stopping event loop")
		el.Stop()
		return ae.NoMore
	}

	return int64(1000 / max(config.Hz, 1))
}

// beforeSleep runs before the loop waits for events: work handed over by
// other goroutines is executed here.
func (server *AsyncServer) beforeSleep(el *ae.EventLoop) {
	server.taskQueue.DrainQueue()
}
