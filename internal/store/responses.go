package store

import (
    "context"

    "voicesurvey/agent/internal/survey"
)

// ResponseStore persists submitted survey responses. Two backends exist:
// SQLite for single-node deployments and Postgres for shared ones.
type ResponseStore interface {
    SaveResponse(ctx context.Context, r survey.Response) error
    ListResponses(ctx context.Context, surveyID string) ([]survey.Response, error)
    Ping(ctx context.Context) error
    Close() error
}
