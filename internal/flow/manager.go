package flow

import (
    "sync"

    "voicesurvey/agent/internal/speech"
)

// Session bundles one survey-taking session's controller with its provider
// and model.
type Session struct {
    ID         string
    Controller *Controller
    Provider   speech.Provider
    Model      FormModel
}

// Manager keeps the live sessions and routes inbound bridge traffic to the
// right provider.
type Manager struct {
    mu       sync.Mutex
    sessions map[string]*Session
}

func NewManager() *Manager {
    return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) Put(s *Session) {
    m.mu.Lock()
    m.sessions[s.ID] = s
    m.mu.Unlock()
}

func (m *Manager) Get(id string) *Session {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.sessions[id]
}

func (m *Manager) Remove(id string) {
    m.mu.Lock()
    delete(m.sessions, id)
    m.mu.Unlock()
}

// HandleBridgeMessage dispatches a host-shell message to the session's
// bridge provider. Messages for sessions on the in-process provider are
// ignored.
func (m *Manager) HandleBridgeMessage(sessionID, typ, text string) {
    s := m.Get(sessionID)
    if s == nil {
        return
    }
    bp, ok := s.Provider.(*speech.BridgeProvider)
    if !ok {
        return
    }
    switch typ {
    case "ready":
        bp.HandleReady()
    case "utterance":
        bp.HandleUtterance(text)
    case "speech_error":
        bp.HandleError(text)
    }
}
