package metrics

import (
	"net/http"
	"runtime"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes lobby supply as Prometheus metrics. Values are updated
// from lobby and room notifications, never polled.
type Collector struct {
	registry *prometheus.Registry

	rooms     prometheus.Gauge
	openRooms prometheus.Gauge
	members   prometheus.Gauge
	events    *prometheus.CounterVec

	goRoutines  prometheus.Gauge
	memoryAlloc prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_rooms",
			Help: "Rooms currently registered in the lobby.",
		}),
		openRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_open_rooms",
			Help: "Rooms currently accepting members.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_members",
			Help: "Members seated across all lobby rooms.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_events_total",
			Help: "Lobby notifications delivered, by event.",
		}, []string{"event"}),
		goRoutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "app_go_routines",
			Help: "Goroutines at the last scrape.",
		}),
		memoryAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "app_sys_memory_alloc",
			Help: "Heap bytes allocated at the last scrape.",
		}),
	}

	c.registry.MustRegister(
		c.rooms, c.openRooms, c.members, c.events,
		c.goRoutines, c.memoryAlloc,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe subscribes the collector to l and to every room l adds.
func (c *Collector) Observe(l *domain.Lobby) {
	refresh := func(domain.RoomEvent) { c.refresh(l) }

	l.On(domain.EventRoomAdd, func(ev domain.LobbyEvent) {
		c.events.WithLabelValues(domain.EventRoomAdd).Inc()
		ev.Room.On(domain.EventMemberAdd, refresh)
		ev.Room.On(domain.EventMemberRemove, refresh)
		c.refresh(l)
	})

	for _, event := range []string{domain.EventRoomOpen, domain.EventRoomClose, domain.EventRoomEnd} {
		l.On(event, func(domain.LobbyEvent) {
			c.events.WithLabelValues(event).Inc()
			c.refresh(l)
		})
	}

	l.On(domain.EventError, func(domain.LobbyEvent) {
		c.events.WithLabelValues(domain.EventError).Inc()
	})

	c.refresh(l)
}

func (c *Collector) refresh(l *domain.Lobby) {
	open, members := 0, 0
	rooms := l.Rooms()
	for _, r := range rooms {
		if r.IsOpen() {
			open++
		}
		members += r.MemberCount()
	}

	c.rooms.Set(float64(len(rooms)))
	c.openRooms.Set(float64(open))
	c.members.Set(float64(members))
}

// Handler serves the registry and samples runtime gauges on every scrape.
func (c *Collector) Handler() http.Handler {
	metrics := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		c.goRoutines.Set(float64(runtime.NumGoroutine()))
		c.memoryAlloc.Set(float64(stats.Alloc))

		metrics.ServeHTTP(w, r)
	})
}
