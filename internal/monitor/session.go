package monitor

import (
	"time"

	"parking-monitor/internal/domain/parking"
)

// observation is one spot's matched detection for a cycle, with the identity
// the tracker resolved for it.
type observation struct {
	detection parking.Detection
	carID     string
}

// transitions collects what one cycle did to the session set. The monitor
// flushes these to persistence after releasing its lock.
type transitions struct {
	opened []*parking.Session
	closed []*parking.Session
}

type spotState struct {
	spot    parking.Spot
	status  parking.SpotStatus
	session *parking.Session

	// Debounce counters. hitStreak runs while VACANT, missStreak while
	// OCCUPIED; each resets when the opposite observation arrives.
	hitStreak  int
	missStreak int

	// First qualifying observation of the current opening streak: the
	// session's start time and opening confidence come from it.
	pendingStart time.Time
	pendingConf  float64
	pendingCarID string
}

// SessionManager is the per-spot occupancy state machine. Every spot starts
// VACANT and holds at most one open session at any time.
type SessionManager struct {
	openDebounce  int
	closeDebounce int
	states        []*spotState
	byID          map[string]*spotState
}

func NewSessionManager(spots []parking.Spot, openDebounce, closeDebounce int) *SessionManager {
	if openDebounce < 1 {
		openDebounce = 1
	}
	if closeDebounce < 1 {
		closeDebounce = 1
	}
	m := &SessionManager{
		openDebounce:  openDebounce,
		closeDebounce: closeDebounce,
		byID:          make(map[string]*spotState, len(spots)),
	}
	for _, spot := range spots {
		st := &spotState{spot: spot, status: parking.StatusVacant}
		m.states = append(m.states, st)
		m.byID[spot.ID] = st
	}
	return m
}

// Apply advances every spot's state machine with this cycle's observations.
// Spots missing from the map had no qualifying observation, which counts
// toward the vacancy debounce but never closes a session on its own.
func (m *SessionManager) Apply(now time.Time, observed map[string]observation) transitions {
	var tr transitions
	for _, st := range m.states {
		obs, seen := observed[st.spot.ID]
		switch st.status {
		case parking.StatusVacant:
			if !seen {
				st.hitStreak = 0
				continue
			}
			if st.hitStreak == 0 {
				st.pendingStart = obs.detection.CapturedAt
				st.pendingConf = obs.detection.Confidence
				st.pendingCarID = obs.carID
			}
			st.hitStreak++
			if st.hitStreak >= m.openDebounce {
				session := parking.NewSession(st.spot, st.pendingCarID, st.pendingStart, st.pendingConf)
				if st.hitStreak > 1 {
					session.Extend(obs.detection.CapturedAt, obs.carID, obs.detection.Confidence)
				}
				st.status = parking.StatusOccupied
				st.session = session
				st.hitStreak = 0
				tr.opened = append(tr.opened, session)
			}
		case parking.StatusOccupied:
			if seen {
				st.missStreak = 0
				st.session.Extend(obs.detection.CapturedAt, obs.carID, obs.detection.Confidence)
				continue
			}
			st.missStreak++
			if st.missStreak >= m.closeDebounce {
				session := st.session
				// End at the last cycle the spot was observed occupied,
				// not the cycle that confirmed vacancy.
				end := session.LastSeen
				session.EndTime = &end
				st.status = parking.StatusVacant
				st.session = nil
				st.missStreak = 0
				tr.closed = append(tr.closed, session)
			}
		}
	}
	return tr
}

// OpenSessions returns the live session pointers in spot configuration
// order. Callers must hold the monitor lock.
func (m *SessionManager) OpenSessions() []*parking.Session {
	var open []*parking.Session
	for _, st := range m.states {
		if st.session != nil {
			open = append(open, st.session)
		}
	}
	return open
}

func (m *SessionManager) States() []*spotState {
	return m.states
}

// Restore re-attaches a persisted open session to its spot, typically at
// startup. Unknown spot ids are reported back to the caller.
func (m *SessionManager) Restore(session *parking.Session) bool {
	st, ok := m.byID[session.SpotID]
	if !ok || st.session != nil {
		return false
	}
	st.status = parking.StatusOccupied
	st.session = session
	return true
}
