package store

import (
    "context"
    "database/sql"
    "fmt"

    _ "github.com/mattn/go-sqlite3"

    "voicesurvey/agent/internal/survey"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
    id           TEXT PRIMARY KEY,
    survey_id    TEXT NOT NULL,
    name         TEXT NOT NULL,
    region       TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS answers (
    response_id TEXT NOT NULL REFERENCES responses(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL,
    position    INTEGER NOT NULL,
    value       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_survey ON responses(survey_id);
CREATE INDEX IF NOT EXISTS idx_answers_response ON answers(response_id);
`

// SQLiteResponseStore stores responses in a local SQLite database.
type SQLiteResponseStore struct {
    db *sql.DB
}

func NewSQLiteResponseStore(dsn string) (*SQLiteResponseStore, error) {
    db, err := sql.Open("sqlite3", dsn)
    if err != nil {
        return nil, fmt.Errorf("open sqlite: %w", err)
    }
    if _, err := db.Exec(sqliteSchema); err != nil {
        db.Close()
        return nil, fmt.Errorf("init sqlite schema: %w", err)
    }
    return &SQLiteResponseStore{db: db}, nil
}

func (s *SQLiteResponseStore) SaveResponse(ctx context.Context, r survey.Response) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    defer tx.Rollback()

    if _, err := tx.ExecContext(ctx,
        `INSERT INTO responses (id, survey_id, name, region, submitted_at) VALUES (?, ?, ?, ?, ?)`,
        r.ID, r.SurveyID, r.Name, r.Region, r.SubmittedAt); err != nil {
        return fmt.Errorf("insert response: %w", err)
    }
    for _, a := range r.Answers {
        for i, v := range a.Values {
            if _, err := tx.ExecContext(ctx,
                `INSERT INTO answers (response_id, question_id, position, value) VALUES (?, ?, ?, ?)`,
                r.ID, a.QuestionID, i, v); err != nil {
                return fmt.Errorf("insert answer: %w", err)
            }
        }
    }
    return tx.Commit()
}

func (s *SQLiteResponseStore) ListResponses(ctx context.Context, surveyID string) ([]survey.Response, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT id, survey_id, name, region, submitted_at FROM responses WHERE survey_id = ? ORDER BY submitted_at`,
        surveyID)
    if err != nil {
        return nil, fmt.Errorf("query responses: %w", err)
    }
    defer rows.Close()

    var out []survey.Response
    for rows.Next() {
        var r survey.Response
        if err := rows.Scan(&r.ID, &r.SurveyID, &r.Name, &r.Region, &r.SubmittedAt); err != nil {
            return nil, fmt.Errorf("scan response: %w", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range out {
        answers, err := s.loadAnswers(ctx, out[i].ID)
        if err != nil {
            return nil, err
        }
        out[i].Answers = answers
    }
    return out, nil
}

func (s *SQLiteResponseStore) loadAnswers(ctx context.Context, responseID string) ([]survey.Answer, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT question_id, value FROM answers WHERE response_id = ? ORDER BY question_id, position`,
        responseID)
    if err != nil {
        return nil, fmt.Errorf("query answers: %w", err)
    }
    defer rows.Close()

    var out []survey.Answer
    for rows.Next() {
        var qid, val string
        if err := rows.Scan(&qid, &val); err != nil {
            return nil, fmt.Errorf("scan answer: %w", err)
        }
        if n := len(out); n > 0 && out[n-1].QuestionID == qid {
            out[n-1].Values = append(out[n-1].Values, val)
        } else {
            out = append(out, survey.Answer{QuestionID: qid, Values: []string{val}})
        }
    }
    return out, rows.Err()
}

func (s *SQLiteResponseStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteResponseStore) Close() error { return s.db.Close() }
