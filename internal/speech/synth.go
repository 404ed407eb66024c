package speech

import (
    "context"
    "log"
    "strings"
    "sync"
    "time"
)

// Voice is one synthesis voice as enumerated by the platform backend.
type Voice struct {
    Name string
    Lang string
}

// Synthesizer is the platform synthesis primitive the host supplies.
// A nil voice means the platform default, unvoiced utterance.
type Synthesizer interface {
    Voices() []Voice
    Utter(ctx context.Context, v *Voice, text string) error
}

// Recognizer is the platform recognition primitive the host supplies.
// Results and errors come back through the callbacks passed to Start.
type Recognizer interface {
    Start(ctx context.Context, onResult func(text string), onError func(code string)) error
    Stop() error
}

// SynthOptions tune voice selection and the enumeration retry policy.
type SynthOptions struct {
    Language     string        // BCP-47 tag, e.g. "en-US"
    EnumRetries  int           // voice enumeration retries before unvoiced fallback
    EnumBackoff  time.Duration // base backoff, grows linearly per attempt
}

func DefaultSynthOptions() SynthOptions {
    return SynthOptions{Language: "en-US", EnumRetries: 3, EnumBackoff: 500 * time.Millisecond}
}

// maleNameHints mirror the voice-name heuristic used for picking a male
// sounding voice before falling back to the first enumerated one.
var maleNameHints = []string{"male", "david", "alex", "google", "microsoft"}

// SynthProvider speaks through an in-process synthesis backend and listens
// through an in-process recognizer.
type SynthProvider struct {
    synth Synthesizer
    rec   Recognizer
    opts  SynthOptions

    mu        sync.Mutex
    cb        Callbacks
    listening bool
}

func NewSynthProvider(synth Synthesizer, rec Recognizer, opts SynthOptions) *SynthProvider {
    if opts.EnumRetries == 0 {
        opts.EnumRetries = 3
    }
    if opts.EnumBackoff == 0 {
        opts.EnumBackoff = 500 * time.Millisecond
    }
    return &SynthProvider{synth: synth, rec: rec, opts: opts}
}

func (p *SynthProvider) Name() string { return "synth" }

func (p *SynthProvider) Available() bool { return p.synth != nil && p.rec != nil }

func (p *SynthProvider) SetCallbacks(cb Callbacks) {
    p.mu.Lock()
    p.cb = cb
    p.mu.Unlock()
}

func (p *SynthProvider) callbacks() Callbacks {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.cb
}

// Speak selects a voice and utters the text. Empty voice enumeration is a
// known startup race on some platforms, so it is retried with increasing
// backoff before uttering unvoiced. alsoListen is a no-op hint here.
func (p *SynthProvider) Speak(ctx context.Context, text string, alsoListen bool) error {
    if p.synth == nil {
        return ErrNoProvider
    }
    metricSpeaks.WithLabelValues(p.Name()).Inc()

    voices := p.synth.Voices()
    for attempt := 1; len(voices) == 0 && attempt <= p.opts.EnumRetries; attempt++ {
        metricVoiceEnumRetries.Inc()
        log.Printf("[speech] no voices enumerated, retry %d/%d", attempt, p.opts.EnumRetries)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(p.opts.EnumBackoff * time.Duration(attempt)):
        }
        voices = p.synth.Voices()
    }
    if len(voices) == 0 {
        metricUnvoicedFallbacks.Inc()
        log.Printf("[speech] voice enumeration exhausted, uttering unvoiced")
        return p.synth.Utter(ctx, nil, text)
    }
    v := chooseVoice(voices, p.opts.Language)
    return p.synth.Utter(ctx, v, text)
}

// chooseVoice prefers a language-matching voice with a male-sounding name,
// then the first available voice.
func chooseVoice(voices []Voice, lang string) *Voice {
    prefix := lang
    if i := strings.IndexByte(lang, '-'); i > 0 {
        prefix = lang[:i]
    }
    for i := range voices {
        if !strings.HasPrefix(strings.ToLower(voices[i].Lang), strings.ToLower(prefix)) {
            continue
        }
        name := strings.ToLower(voices[i].Name)
        for _, hint := range maleNameHints {
            if strings.Contains(name, hint) {
                return &voices[i]
            }
        }
    }
    return &voices[0]
}

func (p *SynthProvider) StartListening(ctx context.Context) error {
    if p.rec == nil {
        return ErrNoProvider
    }
    p.mu.Lock()
    if p.listening {
        p.mu.Unlock()
        return nil
    }
    p.listening = true
    p.mu.Unlock()

    metricListenStarts.WithLabelValues(p.Name()).Inc()
    cb := p.callbacks()
    err := p.rec.Start(ctx,
        func(text string) {
            p.mu.Lock()
            p.listening = false
            p.mu.Unlock()
            if cb.OnResult != nil {
                cb.OnResult(text)
            }
        },
        func(code string) {
            p.mu.Lock()
            p.listening = false
            p.mu.Unlock()
            metricProviderErrors.WithLabelValues(p.Name()).Inc()
            if cb.OnError != nil {
                cb.OnError(code)
            }
        })
    if err != nil {
        p.mu.Lock()
        p.listening = false
        p.mu.Unlock()
        return err
    }
    if cb.OnReady != nil {
        cb.OnReady()
    }
    return nil
}

func (p *SynthProvider) StopListening() error {
    if p.rec == nil {
        return nil
    }
    p.mu.Lock()
    p.listening = false
    p.mu.Unlock()
    return p.rec.Stop()
}
