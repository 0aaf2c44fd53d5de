package monitoring

import (
	"database/sql"
	"sync"
	"time"

	"github.com/isdelr/forum-be/internal/models"
	ws "github.com/isdelr/forum-be/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// StatUpdater periodically snapshots forum activity counts and host load,
// keeps the latest snapshot for the stats endpoint and broadcasts it to
// websocket clients. The cadence is a cron expression from configuration.
type StatUpdater struct {
	db       *sql.DB
	hub      *ws.Hub
	schedule cron.Schedule
	done     chan bool

	mu     sync.RWMutex
	latest models.Stats
}

// NewStatUpdater creates a new StatUpdater. cronExpr must be a standard cron
// expression or a descriptor like "@every 30s".
func NewStatUpdater(db *sql.DB, hub *ws.Hub, cronExpr string) (*StatUpdater, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &StatUpdater{
		db:       db,
		hub:      hub,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")

	// Run once immediately on start
	su.collect()

	for {
		timer := time.NewTimer(time.Until(su.schedule.Next(time.Now())))
		select {
		case <-su.done:
			timer.Stop()
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-timer.C:
			su.collect()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Latest returns the most recent snapshot.
func (su *StatUpdater) Latest() models.Stats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

// collect gathers forum counts and host load into a new snapshot.
func (su *StatUpdater) collect() {
	stats := models.Stats{CollectedAt: time.Now()}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(1) FROM users", &stats.Users},
		{"SELECT COUNT(1) FROM topics", &stats.Topics},
		{"SELECT COUNT(1) FROM messages", &stats.Messages},
	}
	for _, c := range counts {
		if err := su.db.QueryRow(c.query).Scan(c.dest); err != nil {
			log.Error().Err(err).Str("query", c.query).Msg("StatUpdater: Failed to count rows")
			return
		}
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not sample CPU usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemPercent = vm.UsedPercent
	} else {
		log.Warn().Err(err).Msg("StatUpdater: Could not sample memory usage")
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()

	if su.hub != nil {
		su.hub.Broadcast <- ws.NewStatsMessage(stats)
	}
}
