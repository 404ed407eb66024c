package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "voicesurvey/agent/internal/api"
    "voicesurvey/agent/internal/bridgews"
    "voicesurvey/agent/internal/config"
    "voicesurvey/agent/internal/flow"
    "voicesurvey/agent/internal/speech"
    "voicesurvey/agent/internal/store"
    "voicesurvey/agent/internal/survey"
)

func main() {
    // Load .env file if present (ignored if missing)
    _ = godotenv.Load()

    cfg := config.Load()

    st := store.New()
    seedDemoSurvey(st)

    responses, err := store.OpenResponseStore(cfg.DB.Driver, cfg.DB.DSN)
    if err != nil {
        log.Fatalf("response store: %v", err)
    }
    if responses == nil {
        log.Printf("response persistence disabled (DB_DRIVER empty)")
    }

    reg := bridgews.NewRegistry()
    mgr := flow.NewManager()

    synthOpts := speech.DefaultSynthOptions()
    synthOpts.Language = cfg.Voice.Language
    synthOpts.EnumRetries = cfg.Voice.EnumRetries
    providerFactory := func(sessionID string) speech.Provider {
        var synth speech.Provider
        if cfg.Voice.SpeakCmd != "" && cfg.Voice.ListenCmd != "" {
            backend := speech.NewExecBackend(cfg.Voice.SpeakCmd, cfg.Voice.ListenCmd, cfg.Voice.Language)
            synth = speech.NewSynthProvider(backend, backend, synthOpts)
        }
        bridge := speech.NewBridgeProvider(sessionID, reg)
        p, err := speech.Select(cfg.Voice.Provider, synth, bridge)
        if err != nil {
            // The bridge only becomes available once the host shell
            // attaches its websocket; hand it out anyway so Start can
            // gate on availability at the right moment.
            if cfg.Voice.Provider != "synth" {
                return bridge
            }
            log.Printf("no speech provider for session %s: %v", sessionID, err)
            return nil
        }
        return p
    }

    h := api.NewHandlers(cfg, st, responses, mgr, providerFactory)
    mux := http.NewServeMux()
    mux.Handle("/", api.NewRouter(h))
    mux.Handle("/metrics", promhttp.Handler())

    wss := bridgews.NewServer(cfg, st, reg)
    wss.OnMessage = mgr.HandleBridgeMessage
    mux.HandleFunc("/ws/bridge", wss.HandleBridgeWS)

    addr := ":" + cfg.Server.Port
    srv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(mux),
        ReadHeaderTimeout: 5 * time.Second,
    }

    // Graceful shutdown on SIGINT/SIGTERM
    sigc := make(chan os.Signal, 1)
    signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
    go func() {
        <-sigc
        log.Printf("shutdown signal received; stopping server...")
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = srv.Shutdown(ctx)
    }()

    log.Printf("server starting on %s", addr)
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Println("server error:", err)
        os.Exit(1)
    }

    if responses != nil {
        _ = responses.Close()
    }
}

// seedDemoSurvey registers a ready-to-take survey so a fresh deployment can
// be exercised end to end without an authoring step.
func seedDemoSurvey(st *store.Store) {
    now := time.Now().UTC()
    st.PutSurvey(&survey.Survey{
        ID:          "demo",
        Title:       "Customer feedback",
        Description: "A short voice-guided feedback survey",
        CreatedAt:   now,
        PublishedAt: &now,
        Questions: []survey.Question{
            {
                ID: "q1", Order: 1, Required: true,
                Text: "Did our product meet your expectations?",
                Type: survey.TrueFalse,
                Options: []survey.Option{
                    {Value: "true", Label: "Yes"},
                    {Value: "false", Label: "No"},
                },
            },
            {
                ID: "q2", Order: 2, Required: true,
                Text: "Which features do you use?",
                Type: survey.MultipleChoice,
                Options: []survey.Option{
                    {Value: "reports", Label: "Reports"},
                    {Value: "alerts", Label: "Alerts"},
                    {Value: "export", Label: "Export"},
                },
            },
            {
                ID: "q3", Order: 3, Required: true,
                Text: "On a scale of one to ten, how likely are you to recommend us?",
                Type: survey.Scale, Min: 1, Max: 10,
            },
            {
                ID: "q4", Order: 4,
                Text: "Any other comments?",
                Type: survey.FreeText,
            },
        },
    })
    log.Printf("seeded demo survey")
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
    })
}
