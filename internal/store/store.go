package store

import (
    "errors"
    "sync"
    "time"

    "voicesurvey/agent/internal/survey"
    "voicesurvey/agent/internal/types"
)

var ErrSessionExists = errors.New("session already exists")

// Store keeps live sessions, their event logs and the published surveys.
type Store struct {
    mu       sync.RWMutex
    sessions map[string]*types.Session
    events   map[string][]types.Event
    surveys  map[string]*survey.Survey
}

func New() *Store {
    return &Store{
        sessions: make(map[string]*types.Session),
        events:   make(map[string][]types.Event),
        surveys:  make(map[string]*survey.Survey),
    }
}

func (s *Store) CreateSession(sess *types.Session) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.sessions[sess.ID]; ok {
        return ErrSessionExists
    }
    s.sessions[sess.ID] = sess
    s.events[sess.ID] = []types.Event{}
    return nil
}

func (s *Store) GetSession(id string) *types.Session {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.sessions[id]
}

func (s *Store) SetSessionStatus(id, status string) {
    s.mu.Lock()
    if sess, ok := s.sessions[id]; ok {
        sess.Status = status
    }
    s.mu.Unlock()
}

// SetVoiceStatus records the latest human-readable status line.
func (s *Store) SetVoiceStatus(id, status string) {
    s.mu.Lock()
    if sess, ok := s.sessions[id]; ok {
        sess.VoiceStatus = status
    }
    s.mu.Unlock()
}

// SetListening mirrors the start/stop toggle state.
func (s *Store) SetListening(id string, listening bool) {
    s.mu.Lock()
    if sess, ok := s.sessions[id]; ok {
        sess.Listening = listening
    }
    s.mu.Unlock()
}

func (s *Store) AppendEvent(sessionID, typ string, payload map[string]any) types.Event {
    evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
    s.mu.Lock()
    defer s.mu.Unlock()
    s.events[sessionID] = append(s.events[sessionID], evt)
    // Cap total events per session to avoid unbounded growth
    const maxEvents = 200
    if l := len(s.events[sessionID]); l > maxEvents {
        keep := maxEvents - 1
        dropped := l - keep
        s.events[sessionID] = append([]types.Event(nil), s.events[sessionID][l-keep:]...)
        warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
        s.events[sessionID] = append(s.events[sessionID], warn)
    }
    return evt
}

func (s *Store) ListEvents(sessionID string) []types.Event {
    s.mu.RLock()
    defer s.mu.RUnlock()
    src := s.events[sessionID]
    out := make([]types.Event, len(src))
    copy(out, src)
    return out
}

func (s *Store) ListSessionIDs() []string {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]string, 0, len(s.sessions))
    for id := range s.sessions {
        out = append(out, id)
    }
    return out
}

// Survey registry

func (s *Store) PutSurvey(sv *survey.Survey) {
    s.mu.Lock()
    s.surveys[sv.ID] = sv
    s.mu.Unlock()
}

func (s *Store) GetSurvey(id string) *survey.Survey {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.surveys[id]
}

// ListPublishedSurveys returns surveys visible to respondents.
func (s *Store) ListPublishedSurveys() []*survey.Survey {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []*survey.Survey
    for _, sv := range s.surveys {
        if sv.IsPublished() {
            out = append(out, sv)
        }
    }
    return out
}
