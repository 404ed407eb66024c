package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "voicesurvey/agent/internal/config"
    "voicesurvey/agent/internal/flow"
    "voicesurvey/agent/internal/speech"
    "voicesurvey/agent/internal/store"
    "voicesurvey/agent/internal/survey"
)

type stubProvider struct{}

func (stubProvider) Name() string                                           { return "stub" }
func (stubProvider) Available() bool                                        { return true }
func (stubProvider) Speak(ctx context.Context, text string, l bool) error   { return nil }
func (stubProvider) StartListening(ctx context.Context) error               { return nil }
func (stubProvider) StopListening() error                                   { return nil }
func (stubProvider) SetCallbacks(cb speech.Callbacks)                       {}

func testConfig() config.Config {
    var c config.Config
    c.Server.Port = "0"
    c.Voice.Provider = "synth"
    c.Voice.MaxRetries = 3
    c.Voice.SettleMs = 5
    c.Voice.StaggerMs = 1
    c.Voice.AdvanceMs = 1
    c.Voice.NoSpeechRetryMs = 1
    c.Voice.ErrorRetryMs = 1
    return c
}

func seedSurvey(st *store.Store) *survey.Survey {
    now := time.Now()
    sv := &survey.Survey{
        ID:          "s1",
        Title:       "Fruit preferences",
        PublishedAt: &now,
        Questions: []survey.Question{{
            ID:   "q1",
            Text: "Do you like mangoes?",
            Type: survey.SingleChoice,
            Options: []survey.Option{
                {Value: "yes", Label: "Yes"},
                {Value: "no", Label: "No"},
            },
        }},
    }
    st.PutSurvey(sv)
    return sv
}

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *store.Store) {
    t.Helper()
    st := store.New()
    seedSurvey(st)
    h := NewHandlers(cfg, st, nil, flow.NewManager(), func(string) speech.Provider { return stubProvider{} })
    srv := httptest.NewServer(NewRouter(h))
    t.Cleanup(srv.Close)
    return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
    t.Helper()
    b, _ := json.Marshal(body)
    resp, err := http.Post(url, "application/json", bytes.NewReader(b))
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    return resp
}

func TestUnknownSession404(t *testing.T) {
    srv, _ := newTestServer(t, testConfig())

    resp := postJSON(t, srv.URL+"/sessions/unknown/start", nil)
    if resp.StatusCode != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", resp.StatusCode)
    }
    resp, err := http.Get(srv.URL + "/sessions/unknown/events")
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    if resp.StatusCode != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", resp.StatusCode)
    }
}

func TestCreateSessionValidatesSurvey(t *testing.T) {
    srv, _ := newTestServer(t, testConfig())

    resp := postJSON(t, srv.URL+"/sessions", map[string]any{"survey_id": "nope"})
    if resp.StatusCode != http.StatusNotFound {
        t.Fatalf("expected 404 for unknown survey, got %d", resp.StatusCode)
    }
    resp = postJSON(t, srv.URL+"/sessions", map[string]any{})
    if resp.StatusCode != http.StatusBadRequest {
        t.Fatalf("expected 400 for missing survey_id, got %d", resp.StatusCode)
    }
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
    srv, st := newTestServer(t, testConfig())

    resp := postJSON(t, srv.URL+"/sessions", map[string]any{"survey_id": "s1"})
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("create: expected 200, got %d", resp.StatusCode)
    }
    var created struct {
        SessionID string `json:"session_id"`
        Provider  string `json:"provider"`
    }
    json.NewDecoder(resp.Body).Decode(&created)
    if created.SessionID == "" || created.Provider != "stub" {
        t.Fatalf("unexpected create response: %+v", created)
    }
    id := created.SessionID

    resp = postJSON(t, srv.URL+"/sessions/"+id+"/start", nil)
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("start: expected 200, got %d", resp.StatusCode)
    }
    if st.GetSession(id).Status != "active" {
        t.Fatalf("expected active session, got %q", st.GetSession(id).Status)
    }

    // Drive the whole flow over the HTTP utterance path.
    deadline := time.Now().Add(2 * time.Second)
    utterances := []string{"Asha Rao", "karnataka", "yes", "submit"}
    i := 0
    for i < len(utterances) && time.Now().Before(deadline) {
        resp = postJSON(t, srv.URL+"/sessions/"+id+"/utterance", map[string]any{"text": utterances[i]})
        if resp.StatusCode != http.StatusOK {
            t.Fatalf("utterance: expected 200, got %d", resp.StatusCode)
        }
        i++
        time.Sleep(50 * time.Millisecond)
    }

    waitStatus := func(want string) {
        for time.Now().Before(deadline) {
            if st.GetSession(id).Status == want {
                return
            }
            time.Sleep(5 * time.Millisecond)
        }
        t.Fatalf("timed out waiting for session status %q, got %q", want, st.GetSession(id).Status)
    }
    waitStatus("submitted")

    resp, err := http.Get(srv.URL + "/sessions/" + id + "/events")
    if err != nil {
        t.Fatalf("events: %v", err)
    }
    var evs struct {
        Events []struct {
            Type string `json:"type"`
        } `json:"events"`
    }
    json.NewDecoder(resp.Body).Decode(&evs)
    found := false
    for _, e := range evs.Events {
        if e.Type == "form_submitted" {
            found = true
        }
    }
    if !found {
        t.Fatal("expected form_submitted in the event log")
    }
}

func TestBridgeTokenMinting(t *testing.T) {
    cfg := testConfig()
    srv, _ := newTestServer(t, cfg)

    resp := postJSON(t, srv.URL+"/sessions", map[string]any{"survey_id": "s1"})
    var created struct {
        SessionID string `json:"session_id"`
    }
    json.NewDecoder(resp.Body).Decode(&created)

    // No secret configured.
    resp = postJSON(t, srv.URL+"/sessions/"+created.SessionID+"/bridge-token", nil)
    if resp.StatusCode != http.StatusBadRequest {
        t.Fatalf("expected 400 without secret, got %d", resp.StatusCode)
    }

    cfg.Bridge.TokenSecret = "s3cret"
    cfg.Bridge.TokenExpMin = 10
    srv2, _ := newTestServer(t, cfg)
    resp = postJSON(t, srv2.URL+"/sessions", map[string]any{"survey_id": "s1"})
    json.NewDecoder(resp.Body).Decode(&created)
    resp = postJSON(t, srv2.URL+"/sessions/"+created.SessionID+"/bridge-token", nil)
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200 with secret, got %d", resp.StatusCode)
    }
    var tok struct {
        Token string `json:"token"`
        WSURL string `json:"ws_url"`
    }
    json.NewDecoder(resp.Body).Decode(&tok)
    if tok.Token == "" || tok.WSURL == "" {
        t.Fatalf("incomplete token response: %+v", tok)
    }
}

func TestSurveyEndpoints(t *testing.T) {
    srv, st := newTestServer(t, testConfig())
    st.PutSurvey(&survey.Survey{ID: "draft", Title: "Unpublished"})

    resp, err := http.Get(srv.URL + "/surveys")
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    var list struct {
        Surveys []struct {
            ID string `json:"id"`
        } `json:"surveys"`
    }
    json.NewDecoder(resp.Body).Decode(&list)
    if len(list.Surveys) != 1 || list.Surveys[0].ID != "s1" {
        t.Fatalf("expected only the published survey, got %+v", list.Surveys)
    }

    resp, _ = http.Get(srv.URL + "/surveys/draft")
    if resp.StatusCode != http.StatusNotFound {
        t.Fatalf("draft survey must 404, got %d", resp.StatusCode)
    }
    resp, _ = http.Get(srv.URL + "/surveys/s1")
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200 for published survey, got %d", resp.StatusCode)
    }
}
