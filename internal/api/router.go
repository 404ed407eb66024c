package api

import (
    "net/http"
    "strings"
)

func NewRouter(h *Handlers) http.Handler {
    mux := http.NewServeMux()

    mux.HandleFunc("/healthz", h.HandleHealthz)

    mux.HandleFunc("/surveys", func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodGet {
            h.HandleListSurveys(w, r)
            return
        }
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
    })

    mux.HandleFunc("/surveys/", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/surveys/"), "/")
        if id == "" || strings.Contains(id, "/") {
            http.NotFound(w, r)
            return
        }
        h.HandleGetSurvey(w, r, id)
    })

    mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost {
            h.HandleCreateSession(w, r)
            return
        }
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
    })

    mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
        // /sessions/{id}/start | /utterance | /events | /status | /bridge-token
        path := strings.TrimSuffix(r.URL.Path, "/")
        const prefix = "/sessions/"
        if !strings.HasPrefix(path, prefix) {
            http.NotFound(w, r)
            return
        }
        rest := strings.TrimPrefix(path, prefix)
        parts := strings.Split(rest, "/")
        if len(parts) == 0 || parts[0] == "" {
            http.NotFound(w, r)
            return
        }
        id := parts[0]
        tail := ""
        if len(parts) > 1 {
            tail = parts[1]
        }

        switch tail {
        case "start":
            if r.Method != http.MethodPost {
                http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
                return
            }
            h.HandleStartSession(w, r, id)
        case "utterance":
            if r.Method != http.MethodPost {
                http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
                return
            }
            h.HandleUtterance(w, r, id)
        case "events":
            if r.Method != http.MethodGet {
                http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
                return
            }
            h.HandleListEvents(w, r, id)
        case "status":
            if r.Method != http.MethodGet {
                http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
                return
            }
            h.HandleStatus(w, r, id)
        case "bridge-token":
            if r.Method != http.MethodPost {
                http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
                return
            }
            h.HandleMintBridgeToken(w, r, id)
        default:
            http.NotFound(w, r)
        }
    })

    return mux
}
