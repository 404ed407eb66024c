// Package form binds recognized utterances to survey form fields.
//
// The host constructs a Model from the survey definition; the flow controller
// asks it for the next unanswered block and commits utterances into it. The
// model is the single source of truth for what remains unanswered, so callers
// must re-query it after every awaited gap instead of caching blocks.
package form

import (
    "log"
    "regexp"
    "sort"
    "strconv"
    "strings"
    "sync"

    "voicesurvey/agent/internal/normalize"
    "voicesurvey/agent/internal/survey"
)

var firstInt = regexp.MustCompile(`\d+`)

const (
    defaultScaleMin = 1
    defaultScaleMax = 10
)

// ChangeEvent notifies listeners that a field was committed, mirroring the
// change/input notification a reactive page would observe.
type ChangeEvent struct {
    QuestionID string
    Type       survey.QuestionType
    Values     []string
}

// Block is one question plus its committed answer state.
type Block struct {
    Question survey.Question

    answered bool
    values   []string
}

func (b *Block) Answered() bool { return b.answered }

// Values returns the committed answer values.
func (b *Block) Values() []string {
    out := make([]string, len(b.values))
    copy(out, b.values)
    return out
}

type Model struct {
    mu        sync.Mutex
    blocks    []*Block
    name      string
    region    string
    listeners []func(ChangeEvent)
}

// NewModel builds a form model from a survey, ordered by question order.
func NewModel(s *survey.Survey) *Model {
    m := &Model{}
    for _, q := range s.Questions {
        m.blocks = append(m.blocks, &Block{Question: q})
    }
    sort.SliceStable(m.blocks, func(i, j int) bool {
        return m.blocks[i].Question.Order < m.blocks[j].Question.Order
    })
    return m
}

// OnChange registers a listener fired on every successful commit.
func (m *Model) OnChange(fn func(ChangeEvent)) {
    m.mu.Lock()
    m.listeners = append(m.listeners, fn)
    m.mu.Unlock()
}

func (m *Model) SetName(name string) {
    m.mu.Lock()
    m.name = name
    m.mu.Unlock()
}

func (m *Model) SetRegion(region string) {
    m.mu.Lock()
    m.region = region
    m.mu.Unlock()
}

func (m *Model) Name() string {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.name
}

func (m *Model) Region() string {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.region
}

// Next returns the first unanswered block, or nil when none remain.
func (m *Model) Next() *Block {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, b := range m.blocks {
        if !b.answered {
            return b
        }
    }
    return nil
}

// Unanswered reports how many blocks are still unanswered.
func (m *Model) Unanswered() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    n := 0
    for _, b := range m.blocks {
        if !b.answered {
            n++
        }
    }
    return n
}

// Commit attempts to satisfy the block with the utterance. Returns true when
// a value was committed; the block is then marked answered and listeners are
// notified. A false return means no match and no state change.
//
// Branch order is most-constrained-type-first: radio, checkbox, numeric,
// free text.
func (m *Model) Commit(b *Block, utterance string) bool {
    switch b.Question.Type {
    case survey.SingleChoice, survey.TrueFalse:
        return m.commitRadio(b, utterance)
    case survey.MultipleChoice:
        return m.commitCheckboxes(b, utterance)
    case survey.Scale, survey.Rating:
        return m.commitScale(b, utterance)
    case survey.FreeText:
        return m.commitText(b, utterance)
    }
    log.Printf("[form] unknown question type %q for question %s", b.Question.Type, b.Question.ID)
    return false
}

// commitRadio matches against each option's label and value via bidirectional
// substring containment, with yes/no treated as synonyms for true/false
// valued options. First match wins.
func (m *Model) commitRadio(b *Block, utterance string) bool {
    text := normalize.Normalize(utterance)
    if text == "" {
        return false
    }
    for _, opt := range b.Question.Options {
        label := normalize.Normalize(opt.Label)
        value := strings.ToLower(opt.Value)
        switch {
        case label != "" && strings.Contains(text, label),
            value != "" && strings.Contains(text, value),
            strings.Contains(text, "yes") && strings.Contains(value, "true"),
            strings.Contains(text, "no") && strings.Contains(value, "false"),
            strings.Contains(text, "true") && strings.Contains(value, "true"),
            strings.Contains(text, "false") && strings.Contains(value, "false"):
            m.finish(b, []string{opt.Value})
            return true
        }
    }
    return false
}

// commitCheckboxes checks every option whose label contains (or is contained
// by) any word of the utterance. Partial coverage is accepted: one checked
// box answers the block.
func (m *Model) commitCheckboxes(b *Block, utterance string) bool {
    text := normalize.Normalize(utterance)
    if text == "" {
        return false
    }
    var picked []string
    seen := make(map[string]bool)
    for _, word := range strings.Fields(text) {
        for _, opt := range b.Question.Options {
            label := normalize.Normalize(opt.Label)
            if label == "" || seen[opt.Value] {
                continue
            }
            if strings.Contains(label, word) || strings.Contains(word, label) {
                seen[opt.Value] = true
                picked = append(picked, opt.Value)
            }
        }
    }
    if len(picked) == 0 {
        return false
    }
    m.finish(b, picked)
    return true
}

// commitScale extracts the first integer from the utterance and accepts it
// only within the question's declared bounds.
func (m *Model) commitScale(b *Block, utterance string) bool {
    digits := firstInt.FindString(normalize.Normalize(utterance))
    if digits == "" {
        return false
    }
    n, err := strconv.Atoi(digits)
    if err != nil {
        return false
    }
    min, max := b.Question.Min, b.Question.Max
    if min == 0 {
        min = defaultScaleMin
    }
    if max == 0 {
        max = defaultScaleMax
    }
    if n < min || n > max {
        log.Printf("[form] scale value %d outside [%d,%d] for question %s", n, min, max, b.Question.ID)
        return false
    }
    m.finish(b, []string{strconv.Itoa(n)})
    return true
}

func (m *Model) commitText(b *Block, utterance string) bool {
    text := normalize.Sanitize(utterance)
    if text == "" {
        return false
    }
    m.finish(b, []string{text})
    return true
}

func (m *Model) finish(b *Block, values []string) {
    m.mu.Lock()
    b.answered = true
    b.values = values
    listeners := make([]func(ChangeEvent), len(m.listeners))
    copy(listeners, m.listeners)
    m.mu.Unlock()

    evt := ChangeEvent{QuestionID: b.Question.ID, Type: b.Question.Type, Values: values}
    for _, fn := range listeners {
        fn(evt)
    }
}

// Answers collects the committed answers in question order.
func (m *Model) Answers() []survey.Answer {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []survey.Answer
    for _, b := range m.blocks {
        if b.answered {
            out = append(out, survey.Answer{QuestionID: b.Question.ID, Values: b.Values()})
        }
    }
    return out
}

// Reset clears all committed state so the model can serve another attempt.
func (m *Model) Reset() {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.name = ""
    m.region = ""
    for _, b := range m.blocks {
        b.answered = false
        b.values = nil
    }
}
