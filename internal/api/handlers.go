package api

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "time"

    "github.com/google/uuid"
    "voicesurvey/agent/internal/auth"
    "voicesurvey/agent/internal/config"
    "voicesurvey/agent/internal/flow"
    "voicesurvey/agent/internal/form"
    "voicesurvey/agent/internal/health"
    "voicesurvey/agent/internal/speech"
    "voicesurvey/agent/internal/store"
    "voicesurvey/agent/internal/survey"
    "voicesurvey/agent/internal/types"
)

// ProviderFactory builds the speech provider for a new session. May return
// nil when no provider is usable; the controller then disables voice.
type ProviderFactory func(sessionID string) speech.Provider

type Handlers struct {
    cfg       config.Config
    store     *store.Store
    responses store.ResponseStore
    mgr       *flow.Manager
    provider  ProviderFactory
}

func NewHandlers(cfg config.Config, st *store.Store, rs store.ResponseStore, mgr *flow.Manager, pf ProviderFactory) *Handlers {
    return &Handlers{cfg: cfg, store: st, responses: rs, mgr: mgr, provider: pf}
}

func timingsFromConfig(cfg config.Config) flow.Timings {
    ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
    return flow.Timings{
        Settle:        ms(cfg.Voice.SettleMs),
        Advance:       ms(cfg.Voice.AdvanceMs),
        Stagger:       ms(cfg.Voice.StaggerMs),
        NoSpeechRetry: ms(cfg.Voice.NoSpeechRetryMs),
        ErrorRetry:    ms(cfg.Voice.ErrorRetryMs),
    }
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
    var body struct {
        SurveyID string `json:"survey_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SurveyID == "" {
        http.Error(w, "missing survey_id", http.StatusBadRequest)
        return
    }
    sv := h.store.GetSurvey(body.SurveyID)
    if sv == nil || !sv.IsPublished() {
        http.Error(w, "unknown survey", http.StatusNotFound)
        return
    }

    id := uuid.New().String()
    prov := h.provider(id)
    provName := "none"
    if prov != nil {
        provName = prov.Name()
    }

    sess := &types.Session{
        ID:        id,
        SurveyID:  sv.ID,
        Provider:  provName,
        CreatedAt: time.Now().UTC(),
        Status:    "created",
    }
    if err := h.store.CreateSession(sess); err != nil {
        http.Error(w, err.Error(), http.StatusConflict)
        return
    }

    model := form.NewModel(sv)
    ctrl := flow.New(flow.Options{
        SessionID:  id,
        Model:      model,
        Provider:   prov,
        Timings:    timingsFromConfig(h.cfg),
        MaxRetries: h.cfg.Voice.MaxRetries,
        Status:     func(s string) { h.store.SetVoiceStatus(id, s) },
        Toggle:     func(l bool) { h.store.SetListening(id, l) },
        Events: func(typ string, payload map[string]any) {
            h.store.AppendEvent(id, typ, payload)
        },
        Submit: func() { h.saveResponse(id, sv.ID, model) },
    })
    h.mgr.Put(&flow.Session{ID: id, Controller: ctrl, Provider: prov, Model: model})
    h.store.AppendEvent(id, "session_created", map[string]any{"survey_id": sv.ID, "provider": provName})

    writeJSON(w, map[string]any{
        "session_id": id,
        "survey_id":  sv.ID,
        "provider":   provName,
    })
}

// saveResponse snapshots the model into a response record and persists it.
// Persistence failures are logged and recorded, never surfaced to the flow.
func (h *Handlers) saveResponse(sessionID, surveyID string, model *form.Model) {
    resp := survey.Response{
        ID:          uuid.New().String(),
        SurveyID:    surveyID,
        Name:        model.Name(),
        Region:      model.Region(),
        Answers:     model.Answers(),
        SubmittedAt: time.Now().UTC(),
    }
    h.store.SetSessionStatus(sessionID, "submitted")
    if h.responses == nil {
        h.store.AppendEvent(sessionID, "response_discarded", map[string]any{"reason": "no response store"})
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := h.responses.SaveResponse(ctx, resp); err != nil {
        log.Printf("[api] save response session=%s: %v", sessionID, err)
        h.store.AppendEvent(sessionID, "response_save_failed", map[string]any{"error": err.Error()})
        return
    }
    h.store.AppendEvent(sessionID, "response_saved", map[string]any{"response_id": resp.ID})
}

func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request, id string) {
    fs := h.mgr.Get(id)
    if fs == nil || h.store.GetSession(id) == nil {
        http.NotFound(w, r)
        return
    }
    h.store.AppendEvent(id, "flow_start_requested", nil)
    fs.Controller.Start()
    h.store.SetSessionStatus(id, "active")
    writeJSON(w, map[string]any{
        "ok":      true,
        "phase":   fs.Controller.Phase().String(),
        "enabled": fs.Controller.Enabled(),
    })
}

// HandleUtterance injects one recognized utterance over HTTP. The bridge
// websocket is the normal path; this exists for hosts without a socket and
// for exercising a session by hand.
func (h *Handlers) HandleUtterance(w http.ResponseWriter, r *http.Request, id string) {
    fs := h.mgr.Get(id)
    if fs == nil {
        http.NotFound(w, r)
        return
    }
    var body struct {
        Text string `json:"text"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    fs.Controller.HandleUtterance(body.Text)
    writeJSON(w, map[string]any{"ok": true, "phase": fs.Controller.Phase().String()})
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request, id string) {
    sess := h.store.GetSession(id)
    if sess == nil {
        http.NotFound(w, r)
        return
    }
    out := map[string]any{"session": sess}
    if fs := h.mgr.Get(id); fs != nil {
        out["phase"] = fs.Controller.Phase().String()
        out["speaking"] = fs.Controller.Speaking()
        out["enabled"] = fs.Controller.Enabled()
    }
    writeJSON(w, out)
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
    if h.store.GetSession(id) == nil {
        http.NotFound(w, r)
        return
    }
    writeJSON(w, map[string]any{
        "session_id": id,
        "events":     h.store.ListEvents(id),
    })
}

func (h *Handlers) HandleMintBridgeToken(w http.ResponseWriter, r *http.Request, id string) {
    if h.store.GetSession(id) == nil {
        http.NotFound(w, r)
        return
    }
    if h.cfg.Bridge.TokenSecret == "" {
        http.Error(w, "bridge auth not configured", http.StatusBadRequest)
        return
    }
    exp := time.Now().Add(time.Duration(h.cfg.Bridge.TokenExpMin) * time.Minute).Unix()
    token, err := auth.GenerateBridgeToken(h.cfg.Bridge.TokenSecret, id, exp)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    h.store.AppendEvent(id, "bridge_token_minted", nil)
    writeJSON(w, map[string]any{
        "token":  token,
        "exp":    exp,
        "ws_url": "/ws/bridge?session_id=" + id,
    })
}

func (h *Handlers) HandleListSurveys(w http.ResponseWriter, r *http.Request) {
    surveys := h.store.ListPublishedSurveys()
    if surveys == nil {
        surveys = []*survey.Survey{}
    }
    writeJSON(w, map[string]any{"surveys": surveys})
}

func (h *Handlers) HandleGetSurvey(w http.ResponseWriter, r *http.Request, id string) {
    sv := h.store.GetSurvey(id)
    if sv == nil || !sv.IsPublished() {
        http.NotFound(w, r)
        return
    }
    writeJSON(w, sv)
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
    defer cancel()
    hs := health.CheckAll(ctx, h.cfg, h.responses)
    w.Header().Set("Content-Type", "application/json")
    if !hs.OK {
        w.WriteHeader(http.StatusServiceUnavailable)
    }
    _ = json.NewEncoder(w).Encode(hs)
}

func writeJSON(w http.ResponseWriter, v any) {
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(v)
}
