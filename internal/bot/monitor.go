package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"survbot/internal/common"
	"survbot/internal/store"
	"survbot/internal/survivio"
)

// Delivery of a status embed to one guild's channel
type sendEmbed func(channelID int64, embed *discordgo.MessageEmbed) error

// The status monitor caches the last known surviv.io status and
// enforces the minimum time between two probe cycles. Message events
// arrive on separate goroutines, so the mutex serializes refreshes:
// a refresh in flight finishes before the next one can start
type statusMonitor struct {
	mu       sync.Mutex
	refresh  func() survivio.StatusMap
	store    store.Store
	interval common.Stopwatch
	status   survivio.StatusMap
}

func newStatusMonitor(refresh func() survivio.StatusMap, st store.Store, interval time.Duration) *statusMonitor {
	return &statusMonitor{
		refresh:  refresh,
		store:    st,
		interval: common.NewStopwatch(interval),
		status:   survivio.StatusMap{},
	}
}

// Status returns the cached snapshot from the last refresh.
// It may be stale by up to one interval
func (m *statusMonitor) Status() survivio.StatusMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// MaybeRefresh probes the servers if at least one interval has passed
// since the last attempt, else does nothing. The interval restarts even
// when the probes fail, so a down service is not hammered. When the
// frontend is not up, the new status is fanned out to every guild that
// configured a status channel
func (m *statusMonitor) MaybeRefresh(now time.Time, send sendEmbed) bool {

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.interval.TimedOut(now) {
		return false
	}
	m.interval.StartAt(now)

	m.status = m.refresh()
	if !m.status.FrontendUp() {
		m.fanout(send)
	}
	return true
}

// fanout is a best effort broadcast: a guild whose channel is gone or
// forbidden is logged and skipped, the rest still get their message
func (m *statusMonitor) fanout(send sendEmbed) {

	ctx := context.Background()
	embed := StatusEmbed(m.status)

	ids, err := m.store.ListIDs(ctx)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not list guilds for status fanout: %s", err))
		return
	}
	for _, guildid := range ids {
		cfg, err := m.store.Get(ctx, guildid)
		if err != nil {
			log.Error().Msg(fmt.Sprintf("Could not read config of guild %d during fanout: %s", guildid, err))
			continue
		}
		if cfg.StatusChannelID == 0 {
			continue
		}
		if err := send(cfg.StatusChannelID, embed); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not deliver status to guild %d channel %d: %s", guildid, cfg.StatusChannelID, err))
		}
	}
}
