// Package survey holds the survey definition and response model.
package survey

import "time"

type QuestionType string

const (
    SingleChoice   QuestionType = "single_choice"
    MultipleChoice QuestionType = "multiple_choice"
    TrueFalse      QuestionType = "true_false"
    Scale          QuestionType = "scale"
    Rating         QuestionType = "rating"
    FreeText       QuestionType = "free_text"
)

type Option struct {
    Value string `json:"value"`
    Label string `json:"label"`
}

type Question struct {
    ID       string       `json:"id"`
    Text     string       `json:"text"`
    Type     QuestionType `json:"type"`
    Required bool         `json:"required"`
    Order    int          `json:"order"`
    // Min/Max bound scale and rating questions. Zero values mean the
    // defaults (1..10) apply.
    Min     int      `json:"min,omitempty"`
    Max     int      `json:"max,omitempty"`
    Options []Option `json:"options,omitempty"`
}

type Survey struct {
    ID          string     `json:"id"`
    Title       string     `json:"title"`
    Description string     `json:"description,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    PublishedAt *time.Time `json:"published_at,omitempty"`
    Questions   []Question `json:"questions"`
}

func (s *Survey) IsPublished() bool {
    return s.PublishedAt != nil && !s.PublishedAt.After(time.Now())
}

// Answer is one committed answer; multi-select questions carry several values.
type Answer struct {
    QuestionID string   `json:"question_id"`
    Values     []string `json:"values"`
}

type Response struct {
    ID          string    `json:"id"`
    SurveyID    string    `json:"survey_id"`
    Name        string    `json:"name"`
    Region      string    `json:"region"`
    Answers     []Answer  `json:"answers"`
    SubmittedAt time.Time `json:"submitted_at"`
}
