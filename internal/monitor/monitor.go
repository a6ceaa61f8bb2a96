package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parking-monitor/internal/domain/parking"
)

// Detector produces one cycle's worth of vehicle detections.
type Detector interface {
	Detect(ctx context.Context) ([]parking.Detection, error)
}

// SessionStore persists session lifecycle changes. Failures are reported to
// the caller boundary and logged; in-memory occupancy stays authoritative.
type SessionStore interface {
	CreateSession(ctx context.Context, session *parking.Session) error
	CloseSession(ctx context.Context, session *parking.Session) error
	MarkAlerted(ctx context.Context, session *parking.Session) error
}

// AlertSink delivers threshold-crossing events to the notification layer.
type AlertSink interface {
	Deliver(ctx context.Context, event parking.AlertEvent) error
}

type Options struct {
	Interval             time.Duration
	MinOverlap           float64
	MinConfidence        float64
	OpenDebounce         int
	CloseDebounce        int
	GapTolerance         int
	DriftRadius          float64
	AlertThresholdsHours []float64
}

// Monitor runs the detection-to-state pipeline. One cycle is processed to
// completion before the next begins; the tracking loop is the sole writer of
// the occupancy table and session set, with snapshot readers taking the read
// side of mu.
type Monitor struct {
	opts     Options
	log      zerolog.Logger
	detector Detector
	store    SessionStore
	alerts   AlertSink
	clock    func() time.Time

	mu        sync.RWMutex
	spots     []parking.Spot
	matcher   *SpotMatcher
	tracker   *IdentityTracker
	sessions  *SessionManager
	scheduler *AlertScheduler
	lastCycle time.Time
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(spots []parking.Spot, opts Options, detector Detector, store SessionStore, alerts AlertSink, log zerolog.Logger) *Monitor {
	return &Monitor{
		opts:      opts,
		log:       log,
		detector:  detector,
		store:     store,
		alerts:    alerts,
		clock:     time.Now,
		spots:     spots,
		matcher:   NewSpotMatcher(spots, opts.MinOverlap, opts.MinConfidence),
		tracker:   NewIdentityTracker(opts.GapTolerance, opts.DriftRadius),
		sessions:  NewSessionManager(spots, opts.OpenDebounce, opts.CloseDebounce),
		scheduler: NewAlertScheduler(opts.AlertThresholdsHours),
	}
}

// SetClock replaces the timestamp source. Cycle timing and duration math run
// on this clock.
func (m *Monitor) SetClock(clock func() time.Time) {
	m.clock = clock
}

// Rehydrate re-attaches persisted open sessions at startup, keeping their
// alerted-threshold sets and vehicle identifiers intact.
func (m *Monitor) Rehydrate(sessions []*parking.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, session := range sessions {
		if !m.sessions.Restore(session) {
			m.log.Warn().
				Str("session_id", session.ID.String()).
				Str("spot_id", session.SpotID).
				Msg("cannot restore session for unknown or occupied spot")
			continue
		}
		if st, ok := m.spotByID(session.SpotID); ok {
			m.tracker.Adopt(session.SpotID, session.CarID, regionCentroid(st.Region), session.LastSeen)
		}
		if session.LastSeen.After(m.lastCycle) {
			m.lastCycle = session.LastSeen
		}
		restored++
	}
	if restored > 0 {
		m.log.Info().Int("count", restored).Msg("restored open parking sessions")
	}
}

func (m *Monitor) spotByID(id string) (parking.Spot, bool) {
	for _, spot := range m.spots {
		if spot.ID == id {
			return spot, true
		}
	}
	return parking.Spot{}, false
}

func regionCentroid(g parking.Region) parking.Point {
	var c parking.Point
	if len(g.Points) == 0 {
		return c
	}
	for _, p := range g.Points {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(g.Points))
	c.Y /= float64(len(g.Points))
	return c
}

// Start launches the tracking loop. Calling Start on a running monitor is a
// no-op, matching the idempotent behaviour of the status endpoints.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
	m.log.Info().Dur("interval", m.opts.Interval).Msg("parking monitoring started")
	return true
}

// Stop prevents the next cycle from starting and waits for any in-flight
// cycle to finish. Open sessions stay open.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	<-done
	m.log.Info().Msg("parking monitoring stopped")
	return true
}

func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop signalled mid-wait must not start another cycle; a
			// cycle already running is never interrupted.
			if ctx.Err() != nil {
				return
			}
			m.RunCycle(context.WithoutCancel(ctx))
		}
	}
}

// RunCycle executes one full detection cycle: match, resolve identities,
// advance the state machines, schedule alerts, then flush side effects to
// the collaborators outside the critical section.
func (m *Monitor) RunCycle(ctx context.Context) {
	detections, err := m.detector.Detect(ctx)
	if err != nil {
		// Observation gap: every spot counts one cycle toward its
		// vacancy debounce.
		m.log.Warn().Err(err).Msg("detection cycle produced no usable observations")
		detections = nil
	}

	now := m.clock()

	m.mu.Lock()
	if !m.lastCycle.IsZero() && !now.After(m.lastCycle) {
		clamped := m.lastCycle.Add(time.Millisecond)
		m.log.Warn().
			Time("cycle_time", now).
			Time("clamped_to", clamped).
			Msg("cycle timestamp not after previous cycle, clamping")
		now = clamped
	}
	m.lastCycle = now

	matched := m.matcher.Match(detections)
	observed := make(map[string]observation, len(matched))
	for spotID, det := range matched {
		// Session timing runs on the cycle clock.
		det.CapturedAt = now
		observed[spotID] = observation{
			detection: det,
			carID:     m.tracker.Resolve(spotID, det, now),
		}
	}
	m.tracker.EndCycle(now)

	tr := m.sessions.Apply(now, observed)

	var events []parking.AlertEvent
	alerted := make(map[string]*parking.Session)
	for _, session := range m.sessions.OpenSessions() {
		fired := m.scheduler.Check(session, now)
		if len(fired) > 0 {
			events = append(events, fired...)
			alerted[session.ID.String()] = cloneSession(session)
		}
	}

	opened := cloneSessions(tr.opened)
	closed := cloneSessions(tr.closed)
	m.mu.Unlock()

	m.flush(ctx, opened, closed, events, alerted)
}

// flush pushes the cycle's effects to persistence and notification. These
// calls may block on I/O, so they run after the lock is released; failures
// degrade to log entries.
func (m *Monitor) flush(ctx context.Context, opened, closed []*parking.Session, events []parking.AlertEvent, alerted map[string]*parking.Session) {
	for _, session := range opened {
		m.log.Info().
			Str("session_id", session.ID.String()).
			Str("spot_id", session.SpotID).
			Str("car_id", session.CarID).
			Time("start_time", session.StartTime).
			Msg("parking session opened")
		if err := m.store.CreateSession(ctx, session); err != nil {
			m.log.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("failed to persist opened session")
		}
	}

	for _, session := range closed {
		m.log.Info().
			Str("session_id", session.ID.String()).
			Str("spot_id", session.SpotID).
			Str("car_id", session.CarID).
			Float64("duration_minutes", session.EndTime.Sub(session.StartTime).Minutes()).
			Msg("parking session closed")
		if err := m.store.CloseSession(ctx, session); err != nil {
			m.log.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("failed to persist closed session")
		}
	}

	for _, event := range events {
		m.log.Info().
			Str("session_id", event.SessionID.String()).
			Str("spot_id", event.SpotID).
			Float64("threshold_hours", event.ThresholdHours).
			Float64("elapsed_hours", event.ElapsedHours).
			Msg("parking duration threshold crossed")
		if err := m.alerts.Deliver(ctx, event); err != nil {
			m.log.Error().Err(err).
				Str("session_id", event.SessionID.String()).
				Float64("threshold_hours", event.ThresholdHours).
				Msg("failed to deliver alert")
		}
	}
	for _, session := range alerted {
		if err := m.store.MarkAlerted(ctx, session); err != nil {
			m.log.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("failed to persist alerted thresholds")
		}
	}
}

// Snapshot returns a consistent point-in-time view of every spot. Safe to
// call concurrently with the tracking loop.
func (m *Monitor) Snapshot() parking.OccupancySnapshot {
	now := m.clock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := parking.OccupancySnapshot{
		Running:    m.running,
		TakenAt:    now,
		TotalSpots: len(m.spots),
	}
	for _, st := range m.sessions.States() {
		state := parking.SpotState{
			SpotID:   st.spot.ID,
			SpotName: st.spot.Name,
			Status:   st.status,
		}
		if st.session != nil {
			snap.Occupied++
			summary := summarize(st.session, now)
			state.Session = &summary
		}
		snap.Spots = append(snap.Spots, state)
	}
	return snap
}

// ActiveSessions lists the open sessions with their live elapsed durations.
func (m *Monitor) ActiveSessions() []parking.SessionSummary {
	now := m.clock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []parking.SessionSummary
	for _, session := range m.sessions.OpenSessions() {
		out = append(out, summarize(session, now))
	}
	return out
}

// Stats combines the live occupancy with a window of recently closed
// sessions supplied by the caller.
func (m *Monitor) Stats(closedWindow []parking.Session) parking.StatsSummary {
	return Summarize(len(m.spots), m.ActiveSessions(), closedWindow)
}

func summarize(session *parking.Session, now time.Time) parking.SessionSummary {
	return parking.SessionSummary{
		ID:            session.ID,
		SpotID:        session.SpotID,
		SpotName:      session.SpotName,
		CarID:         session.CarID,
		StartTime:     session.StartTime,
		DurationHours: session.Elapsed(now).Hours(),
		Confidence:    session.AvgConfidence(),
		SnapshotURL:   session.SnapshotURL,
	}
}

func cloneSession(session *parking.Session) *parking.Session {
	clone := *session
	if session.EndTime != nil {
		end := *session.EndTime
		clone.EndTime = &end
	}
	clone.AlertedThresholds = append([]float64(nil), session.AlertedThresholds...)
	return &clone
}

func cloneSessions(sessions []*parking.Session) []*parking.Session {
	out := make([]*parking.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, cloneSession(session))
	}
	return out
}
