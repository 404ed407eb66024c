package bridgews

import (
    "encoding/json"
    "log"
    "net/http"
    "strings"
    "time"

    "voicesurvey/agent/internal/auth"
    "voicesurvey/agent/internal/config"
    "voicesurvey/agent/internal/store"

    ws "nhooyr.io/websocket"
)

// Message is the inbound envelope from the host shell.
// Types: ready | utterance | speech_error.
type Message struct {
    Type      string         `json:"type"`
    TsMs      int64          `json:"ts_ms"`
    SessionID string         `json:"session_id"`
    Text      string         `json:"text,omitempty"`
    Code      string         `json:"code,omitempty"`
    Payload   map[string]any `json:"payload,omitempty"`
}

type Server struct {
    Cfg   config.Config
    Store *store.Store
    Reg   *Registry

    // OnMessage receives every well-formed bridge message so the flow
    // layer can react to it.
    OnMessage func(sessionID, typ, text string)
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry) *Server {
    return &Server{Cfg: cfg, Store: st, Reg: reg}
}

func (s *Server) HandleBridgeWS(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    sessionID := q.Get("session_id")
    if sessionID == "" {
        http.Error(w, "missing session_id", http.StatusBadRequest)
        return
    }
    if s.Store.GetSession(sessionID) == nil {
        http.Error(w, "unknown session", http.StatusNotFound)
        return
    }
    token := bearerToken(r)
    if token == "" {
        // Browsers cannot set headers on websocket upgrades, so the
        // token may ride in the query string instead.
        token = q.Get("token")
    }
    if token == "" {
        http.Error(w, "missing bearer token", http.StatusUnauthorized)
        return
    }
    if s.Cfg.Bridge.TokenSecret == "" {
        http.Error(w, "bridge auth not configured", http.StatusUnauthorized)
        return
    }
    if _, _, err := auth.ValidateBridgeToken(s.Cfg.Bridge.TokenSecret, token, sessionID, time.Now(), s.Cfg.Bridge.TokenSkewSecs); err != nil {
        http.Error(w, "invalid token", http.StatusUnauthorized)
        return
    }

    c, err := ws.Accept(w, r, nil)
    if err != nil {
        log.Printf("[bridgews] accept: %v", err)
        return
    }
    if s.Reg.Replace(sessionID, c) {
        s.Store.AppendEvent(sessionID, "bridge_replaced", nil)
    }
    s.Store.AppendEvent(sessionID, "bridge_connected", nil)

    ctx := r.Context()
    for {
        typ, data, err := c.Read(ctx)
        if err != nil {
            break
        }
        if typ != ws.MessageText && typ != ws.MessageBinary {
            continue
        }
        var msg Message
        if err := json.Unmarshal(data, &msg); err != nil {
            s.Store.AppendEvent(sessionID, "bridge_msg_invalid", map[string]any{"error": err.Error()})
            continue
        }
        payload := msg.Payload
        if payload == nil {
            payload = map[string]any{}
        }
        payload["ts_ms"] = msg.TsMs
        if msg.Text != "" {
            payload["text"] = msg.Text
        }
        if msg.Code != "" {
            payload["code"] = msg.Code
        }
        s.Store.AppendEvent(sessionID, "bridge_"+msg.Type, payload)
        if s.OnMessage != nil {
            text := msg.Text
            if text == "" {
                text = msg.Code
            }
            s.OnMessage(sessionID, msg.Type, text)
        }
    }
    _ = c.Close(ws.StatusNormalClosure, "done")
    // Only drop the registry entry if it is still ours; a replacement
    // connection may have taken the slot while this read loop was exiting.
    s.Reg.RemoveIfCurrent(sessionID, c)
    s.Store.AppendEvent(sessionID, "bridge_disconnected", nil)
}

func bearerToken(r *http.Request) string {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(authz, "Bearer ") {
        return strings.TrimPrefix(authz, "Bearer ")
    }
    return ""
}
