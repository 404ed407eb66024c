package speech

import (
    "context"
    "log"
    "sync"
    "time"
)

// BridgeCommand is the outbound envelope sent to the host shell.
type BridgeCommand struct {
    Type       string `json:"type"` // speak | start_listening | stop_listening
    Text       string `json:"text,omitempty"`
    AlsoListen bool   `json:"also_listen,omitempty"`
    TsMs       int64  `json:"ts_ms"`
}

// BridgeSender abstracts the per-session socket to the host shell.
type BridgeSender interface {
    SendJSON(ctx context.Context, sessionID string, v any) error
    Connected(sessionID string) bool
}

// BridgeProvider forwards speak/listen commands to a host-injected speech
// implementation and surfaces its events through the standard callbacks.
type BridgeProvider struct {
    sessionID string
    sender    BridgeSender

    mu sync.Mutex
    cb Callbacks
}

func NewBridgeProvider(sessionID string, sender BridgeSender) *BridgeProvider {
    return &BridgeProvider{sessionID: sessionID, sender: sender}
}

func (p *BridgeProvider) Name() string { return "bridge" }

func (p *BridgeProvider) Available() bool {
    return p.sender != nil && p.sender.Connected(p.sessionID)
}

func (p *BridgeProvider) SetCallbacks(cb Callbacks) {
    p.mu.Lock()
    p.cb = cb
    p.mu.Unlock()
}

func (p *BridgeProvider) callbacks() Callbacks {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.cb
}

// Speak sends the prompt to the host. With alsoListen the host starts
// recognition as soon as playback completes.
func (p *BridgeProvider) Speak(ctx context.Context, text string, alsoListen bool) error {
    metricSpeaks.WithLabelValues(p.Name()).Inc()
    return p.sender.SendJSON(ctx, p.sessionID, BridgeCommand{
        Type:       "speak",
        Text:       text,
        AlsoListen: alsoListen,
        TsMs:       time.Now().UnixMilli(),
    })
}

func (p *BridgeProvider) StartListening(ctx context.Context) error {
    metricListenStarts.WithLabelValues(p.Name()).Inc()
    return p.sender.SendJSON(ctx, p.sessionID, BridgeCommand{
        Type: "start_listening",
        TsMs: time.Now().UnixMilli(),
    })
}

func (p *BridgeProvider) StopListening() error {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return p.sender.SendJSON(ctx, p.sessionID, BridgeCommand{
        Type: "stop_listening",
        TsMs: time.Now().UnixMilli(),
    })
}

// HandleReady routes the host's listening-started signal.
func (p *BridgeProvider) HandleReady() {
    if cb := p.callbacks(); cb.OnReady != nil {
        cb.OnReady()
    }
}

// HandleUtterance routes one recognized utterance from the host.
func (p *BridgeProvider) HandleUtterance(text string) {
    if cb := p.callbacks(); cb.OnResult != nil {
        cb.OnResult(text)
    } else {
        log.Printf("[speech] bridge utterance dropped, no callback session=%s", p.sessionID)
    }
}

// HandleError routes a host recognition error.
func (p *BridgeProvider) HandleError(code string) {
    metricProviderErrors.WithLabelValues(p.Name()).Inc()
    if cb := p.callbacks(); cb.OnError != nil {
        cb.OnError(code)
    }
}
