// Package flow drives the voice-guided survey sequence: collect the
// respondent's name, their state, each unanswered question in order, then a
// confirm step and the final submit.
package flow

import (
    "context"
    "log"
    "strings"
    "sync"
    "time"

    "voicesurvey/agent/internal/form"
    "voicesurvey/agent/internal/normalize"
    "voicesurvey/agent/internal/regions"
    "voicesurvey/agent/internal/speech"
)

type Phase int

const (
    CollectingName Phase = iota
    CollectingState
    AnsweringQuestions
    ConfirmOrContinue
    FinalSubmit
)

func (p Phase) String() string {
    switch p {
    case CollectingName:
        return "collecting_name"
    case CollectingState:
        return "collecting_state"
    case AnsweringQuestions:
        return "answering_questions"
    case ConfirmOrContinue:
        return "confirm_or_continue"
    case FinalSubmit:
        return "final_submit"
    }
    return "unknown"
}

const (
    promptName      = "Please say your name"
    promptState     = "Please select your state"
    promptConfirm   = "All questions completed. Say next to go to the final stage, or say submit to finish now"
    promptFinal     = "Say submit to finish and submit your response"
    defaultRetryMax = 3
)

// submitWords are the commands accepted in the confirm and final phases.
var submitWords = []string{"submit", "finish", "done", "complete"}

// Timings hold the controller's delays. Production defaults are seconds-scale;
// tests inject millisecond values.
type Timings struct {
    // Settle is how long the speaking guard stays up after a prompt starts.
    Settle time.Duration
    // Advance is the pause between a phase transition and the next prompt.
    Advance time.Duration
    // Stagger separates queued utterances when the guard clears.
    Stagger time.Duration
    // NoSpeechRetry delays the re-prompt after empty recognition or no match.
    NoSpeechRetry time.Duration
    // ErrorRetry delays the re-prompt after a provider error.
    ErrorRetry time.Duration
}

func DefaultTimings() Timings {
    return Timings{
        Settle:        2 * time.Second,
        Advance:       time.Second,
        Stagger:       500 * time.Millisecond,
        NoSpeechRetry: 2 * time.Second,
        ErrorRetry:    3 * time.Second,
    }
}

// FormModel is the live form the controller binds answers into. *form.Model
// implements it; the indirection exists because the unanswered set is
// volatile and hosts may wrap it.
type FormModel interface {
    Next() *form.Block
    Unanswered() int
    Commit(b *form.Block, utterance string) bool
    SetName(name string)
    SetRegion(region string)
}

// Options wire one controller to its collaborators. Status, Toggle, Events
// and Submit may be nil.
type Options struct {
    SessionID  string
    Model      FormModel
    Provider   speech.Provider
    Timings    Timings
    MaxRetries int
    // Status publishes human-readable status lines ("Listening...").
    Status func(text string)
    // Toggle reflects the start/stop voice affordance.
    Toggle func(listening bool)
    // Events records diagnostic events.
    Events func(typ string, payload map[string]any)
    // Submit triggers the external form submission.
    Submit func()
}

// Controller owns one survey-taking session's cursor and guards. All state
// is instance-scoped; multiple sessions run independently.
type Controller struct {
    opts Options

    mu        sync.Mutex
    phase     Phase
    speaking  bool
    enabled   bool
    pending   []string
    // promptDeferred is set when a prompt request was dropped because a
    // prompt was already playing; the settle path re-enters the current
    // phase so the flow cannot go silent.
    promptDeferred bool
    // reprompts bounds no-match/no-speech re-prompting per phase.
    reprompts int
    // discoveries bounds failed question discovery in the prompt path.
    discoveries int
}

func New(opts Options) *Controller {
    if opts.MaxRetries == 0 {
        opts.MaxRetries = defaultRetryMax
    }
    if opts.Timings == (Timings{}) {
        opts.Timings = DefaultTimings()
    }
    return &Controller{opts: opts}
}

// Start is the host's readiness signal. The flow never begins on its own.
// If no provider is usable, voice affordances are disabled and the status
// surface says so instead of failing silently.
func (c *Controller) Start() {
    p := c.opts.Provider
    if p == nil || !p.Available() {
        c.mu.Lock()
        c.enabled = false
        c.mu.Unlock()
        c.status("Voice unavailable")
        c.toggle(false)
        c.event("voice_unsupported", nil)
        return
    }
    p.SetCallbacks(speech.Callbacks{
        OnReady: func() {
            c.status("Listening...")
            c.toggle(true)
        },
        OnResult: func(text string) {
            if strings.TrimSpace(text) == "" {
                c.handleNoSpeech()
                return
            }
            c.toggle(false)
            c.status("Processing...")
            c.HandleUtterance(text)
        },
        OnError: c.handleError,
    })

    c.mu.Lock()
    c.enabled = true
    c.phase = CollectingName
    c.speaking = false
    c.pending = nil
    c.reprompts = 0
    c.discoveries = 0
    c.mu.Unlock()

    c.event("voice_flow_started", map[string]any{"provider": p.Name()})
    c.prompt()
}

// Stop halts listening without resetting the cursor.
func (c *Controller) Stop() {
    if p := c.opts.Provider; p != nil {
        _ = p.StopListening()
    }
    c.toggle(false)
    c.status("Ready")
}

// Phase returns the current cursor position.
func (c *Controller) Phase() Phase {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.phase
}

func (c *Controller) Speaking() bool {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.speaking
}

func (c *Controller) Enabled() bool {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.enabled
}

// HandleUtterance feeds one recognized utterance into the flow. Utterances
// arriving while a prompt is playing are queued, never dropped, and replayed
// in arrival order once the guard clears.
func (c *Controller) HandleUtterance(text string) {
    c.mu.Lock()
    if !c.enabled {
        c.mu.Unlock()
        return
    }
    if c.speaking {
        c.pending = append(c.pending, text)
        n := len(c.pending)
        c.mu.Unlock()
        metricQueued.Inc()
        c.event("utterance_queued", map[string]any{"depth": n})
        return
    }
    c.mu.Unlock()
    c.process(text)
}

// prompt plays the current phase's entry prompt. Duplicate prompt requests
// while a prompt is already playing are dropped, not queued.
func (c *Controller) prompt() {
    c.mu.Lock()
    if !c.enabled {
        c.mu.Unlock()
        return
    }
    if c.speaking {
        c.promptDeferred = true
        c.mu.Unlock()
        log.Printf("[flow] prompt dropped, already speaking session=%s", c.opts.SessionID)
        return
    }
    c.speaking = true
    phase := c.phase

    var text string
    switch phase {
    case CollectingName:
        text = promptName
    case CollectingState:
        text = promptState
    case AnsweringQuestions:
        // The question text is read live at prompt time; the unanswered set
        // shrinks as the user progresses.
        b := c.opts.Model.Next()
        if b == nil {
            c.speaking = false
            if c.opts.Model.Unanswered() == 0 {
                c.phase = ConfirmOrContinue
                c.discoveries = 0
                c.mu.Unlock()
                metricTransitions.WithLabelValues(ConfirmOrContinue.String()).Inc()
                c.event("questions_completed", nil)
                c.schedule(c.opts.Timings.Advance, c.prompt)
                return
            }
            c.discoveries++
            n := c.discoveries
            if n < c.opts.MaxRetries {
                c.mu.Unlock()
                metricDiscoveryRetries.Inc()
                log.Printf("[flow] question discovery failed, retry %d/%d session=%s", n, c.opts.MaxRetries, c.opts.SessionID)
                c.schedule(c.opts.Timings.Advance, c.prompt)
                return
            }
            // Fail open: forward progress over stalling the user.
            c.phase = ConfirmOrContinue
            c.discoveries = 0
            c.mu.Unlock()
            metricForcedAdvances.Inc()
            c.event("discovery_exhausted", map[string]any{"retries": n})
            c.schedule(c.opts.Timings.Advance, c.prompt)
            return
        }
        text = b.Question.Text
    case ConfirmOrContinue:
        text = promptConfirm
    case FinalSubmit:
        text = promptFinal
    }
    c.mu.Unlock()

    metricPrompts.WithLabelValues(phase.String()).Inc()
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    if err := c.opts.Provider.Speak(ctx, text, true); err != nil {
        log.Printf("[flow] speak failed session=%s: %v", c.opts.SessionID, err)
    }
    cancel()
    c.schedule(c.opts.Timings.Settle, c.settled)
}

// settled clears the speaking guard, drains queued utterances in arrival
// order with a fixed stagger, and opens the microphone.
func (c *Controller) settled() {
    c.mu.Lock()
    c.speaking = false
    pend := c.pending
    c.pending = nil
    deferred := c.promptDeferred
    c.promptDeferred = false
    c.mu.Unlock()

    for i, u := range pend {
        u := u
        metricDrained.Inc()
        c.schedule(c.opts.Timings.Stagger*time.Duration(i+1), func() { c.process(u) })
    }
    if len(pend) == 0 && deferred {
        c.schedule(c.opts.Timings.Advance, c.prompt)
        return
    }
    if len(pend) == 0 {
        // Explicit listen for the in-process path; the bridge treats a
        // duplicate start as a no-op.
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        if err := c.opts.Provider.StartListening(ctx); err != nil {
            log.Printf("[flow] start listening failed session=%s: %v", c.opts.SessionID, err)
        }
        cancel()
    }
}

func (c *Controller) process(text string) {
    c.mu.Lock()
    if !c.enabled {
        c.mu.Unlock()
        return
    }
    phase := c.phase
    c.mu.Unlock()

    metricUtterances.Inc()

    switch phase {
    case CollectingName:
        name := normalize.Sanitize(text)
        if name == "" {
            c.reprompt(c.opts.Timings.NoSpeechRetry)
            return
        }
        c.opts.Model.SetName(name)
        c.event("name_committed", nil)
        c.advance(CollectingState)

    case CollectingState:
        r, ok := regions.Match(text)
        if !ok {
            log.Printf("[flow] no region match session=%s text=%q", c.opts.SessionID, text)
            c.event("region_no_match", map[string]any{"text": text})
            c.reprompt(c.opts.Timings.NoSpeechRetry)
            return
        }
        c.opts.Model.SetRegion(r.Name)
        c.event("region_committed", map[string]any{"region": r.Name})
        c.advance(AnsweringQuestions)

    case AnsweringQuestions:
        b := c.opts.Model.Next()
        if b == nil {
            // Transition bookkeeping lives in the prompt path.
            c.schedule(0, c.prompt)
            return
        }
        if c.opts.Model.Commit(b, text) {
            metricCommits.WithLabelValues(string(b.Question.Type)).Inc()
            c.event("answer_committed", map[string]any{"question_id": b.Question.ID})
            c.mu.Lock()
            c.reprompts = 0
            c.mu.Unlock()
            c.schedule(c.opts.Timings.Advance, c.prompt)
            return
        }
        log.Printf("[flow] no answer match session=%s question=%s text=%q", c.opts.SessionID, b.Question.ID, text)
        c.event("answer_no_match", map[string]any{"question_id": b.Question.ID})
        c.reprompt(c.opts.Timings.NoSpeechRetry)

    case ConfirmOrContinue:
        norm := normalize.Normalize(text)
        if strings.Contains(norm, "next") {
            c.advance(FinalSubmit)
            return
        }
        if isSubmitCommand(norm) {
            c.doSubmit()
            return
        }
        log.Printf("[flow] unrecognized confirm command session=%s text=%q", c.opts.SessionID, text)

    case FinalSubmit:
        if isSubmitCommand(normalize.Normalize(text)) {
            c.doSubmit()
            return
        }
        log.Printf("[flow] unrecognized submit command session=%s text=%q", c.opts.SessionID, text)
    }
}

func isSubmitCommand(norm string) bool {
    for _, w := range submitWords {
        if strings.Contains(norm, w) {
            return true
        }
    }
    return false
}

// advance moves the cursor forward and schedules the next prompt. The cursor
// is monotonically non-decreasing outside doSubmit.
func (c *Controller) advance(next Phase) {
    c.mu.Lock()
    c.phase = next
    c.reprompts = 0
    c.mu.Unlock()
    metricTransitions.WithLabelValues(next.String()).Inc()
    c.event("phase_advanced", map[string]any{"phase": next.String()})
    c.schedule(c.opts.Timings.Advance, c.prompt)
}

// reprompt re-enters the current phase after a backoff. Bounded: after
// MaxRetries consecutive failures below the confirm phase the controller
// force-advances instead of stalling.
func (c *Controller) reprompt(after time.Duration) {
    c.mu.Lock()
    if c.phase >= ConfirmOrContinue {
        c.mu.Unlock()
        return
    }
    c.reprompts++
    n := c.reprompts
    if n >= c.opts.MaxRetries {
        c.reprompts = 0
        next := c.phase + 1
        if next > ConfirmOrContinue {
            next = ConfirmOrContinue
        }
        c.phase = next
        c.mu.Unlock()
        metricForcedAdvances.Inc()
        c.event("reprompts_exhausted", map[string]any{"phase": next.String()})
        c.schedule(c.opts.Timings.Advance, c.prompt)
        return
    }
    c.mu.Unlock()
    metricReprompts.Inc()
    c.schedule(after, c.prompt)
}

// doSubmit triggers the external submit action and resets the cursor so the
// controller can serve another attempt in the same page lifetime.
func (c *Controller) doSubmit() {
    c.event("form_submitted", nil)
    metricSubmits.Inc()
    if c.opts.Submit != nil {
        c.opts.Submit()
    }
    c.mu.Lock()
    c.phase = CollectingName
    c.speaking = false
    c.pending = nil
    c.promptDeferred = false
    c.reprompts = 0
    c.discoveries = 0
    c.mu.Unlock()
}

func (c *Controller) handleNoSpeech() {
    c.status("No speech detected")
    c.reprompt(c.opts.Timings.NoSpeechRetry)
}

// handleError absorbs provider errors: status line plus re-prompt, never
// escalated to the host.
func (c *Controller) handleError(code string) {
    c.status("Error: " + code)
    c.toggle(false)
    c.event("speech_error", map[string]any{"code": code})
    c.reprompt(c.opts.Timings.ErrorRetry)
}

func (c *Controller) schedule(d time.Duration, fn func()) {
    if d <= 0 {
        go fn()
        return
    }
    time.AfterFunc(d, fn)
}

func (c *Controller) status(text string) {
    if c.opts.Status != nil {
        c.opts.Status(text)
    }
}

func (c *Controller) toggle(listening bool) {
    if c.opts.Toggle != nil {
        c.opts.Toggle(listening)
    }
}

func (c *Controller) event(typ string, payload map[string]any) {
    if c.opts.Events != nil {
        c.opts.Events(typ, payload)
    }
}
