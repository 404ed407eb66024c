package speech

import (
    "context"
    "testing"
    "time"
)

type fakeSynth struct {
    voices  [][]Voice // one slice per Voices() call; last repeats
    calls   int
    uttered []string
    voice   *Voice
}

func (f *fakeSynth) Voices() []Voice {
    i := f.calls
    if i >= len(f.voices) {
        i = len(f.voices) - 1
    }
    f.calls++
    if i < 0 {
        return nil
    }
    return f.voices[i]
}

func (f *fakeSynth) Utter(ctx context.Context, v *Voice, text string) error {
    f.voice = v
    f.uttered = append(f.uttered, text)
    return nil
}

type fakeRec struct {
    started bool
    result  func(string)
}

func (f *fakeRec) Start(ctx context.Context, onResult func(string), onError func(string)) error {
    f.started = true
    f.result = onResult
    return nil
}

func (f *fakeRec) Stop() error {
    f.started = false
    return nil
}

func testOpts() SynthOptions {
    return SynthOptions{Language: "en-US", EnumRetries: 3, EnumBackoff: time.Millisecond}
}

func TestChooseVoicePrefersMaleLangMatch(t *testing.T) {
    voices := []Voice{
        {Name: "Aditi", Lang: "hi-IN"},
        {Name: "Samantha", Lang: "en-US"},
        {Name: "Microsoft David", Lang: "en-US"},
    }
    v := chooseVoice(voices, "en-US")
    if v.Name != "Microsoft David" {
        t.Fatalf("expected Microsoft David, got %s", v.Name)
    }
}

func TestChooseVoiceFallsBackToFirst(t *testing.T) {
    voices := []Voice{
        {Name: "Aditi", Lang: "hi-IN"},
        {Name: "Lekha", Lang: "hi-IN"},
    }
    v := chooseVoice(voices, "en-US")
    if v.Name != "Aditi" {
        t.Fatalf("expected first voice fallback, got %s", v.Name)
    }
}

func TestSpeakRetriesEnumerationThenSucceeds(t *testing.T) {
    fs := &fakeSynth{voices: [][]Voice{nil, nil, {{Name: "Alex", Lang: "en-US"}}}}
    p := NewSynthProvider(fs, &fakeRec{}, testOpts())
    if err := p.Speak(context.Background(), "hello", false); err != nil {
        t.Fatalf("speak: %v", err)
    }
    if fs.voice == nil || fs.voice.Name != "Alex" {
        t.Fatalf("expected Alex voice after retry, got %+v", fs.voice)
    }
    if len(fs.uttered) != 1 || fs.uttered[0] != "hello" {
        t.Fatalf("expected one utterance, got %v", fs.uttered)
    }
}

func TestSpeakUnvoicedAfterExhaustion(t *testing.T) {
    fs := &fakeSynth{voices: [][]Voice{nil}}
    p := NewSynthProvider(fs, &fakeRec{}, testOpts())
    if err := p.Speak(context.Background(), "hello", false); err != nil {
        t.Fatalf("speak: %v", err)
    }
    if fs.voice != nil {
        t.Fatalf("expected unvoiced fallback, got voice %+v", fs.voice)
    }
    if len(fs.uttered) != 1 {
        t.Fatalf("utterance must still happen after exhaustion, got %v", fs.uttered)
    }
}

func TestStartListeningDeliversResult(t *testing.T) {
    rec := &fakeRec{}
    p := NewSynthProvider(&fakeSynth{voices: [][]Voice{{{Name: "Alex", Lang: "en-US"}}}}, rec, testOpts())
    var got string
    ready := false
    p.SetCallbacks(Callbacks{
        OnReady:  func() { ready = true },
        OnResult: func(text string) { got = text },
    })
    if err := p.StartListening(context.Background()); err != nil {
        t.Fatalf("start listening: %v", err)
    }
    if !ready || !rec.started {
        t.Fatal("expected recognizer started and OnReady fired")
    }
    rec.result("twenty one")
    if got != "twenty one" {
        t.Fatalf("expected result delivered, got %q", got)
    }
}

func TestSelectModes(t *testing.T) {
    synth := NewSynthProvider(&fakeSynth{voices: [][]Voice{nil}}, &fakeRec{}, testOpts())
    if _, err := Select("bridge", synth, nil); err != ErrNoProvider {
        t.Fatalf("expected ErrNoProvider for missing bridge, got %v", err)
    }
    p, err := Select("auto", synth, nil)
    if err != nil || p.Name() != "synth" {
        t.Fatalf("expected synth via auto, got %v err=%v", p, err)
    }
    if _, err := Select("auto", nil, nil); err != ErrNoProvider {
        t.Fatalf("expected ErrNoProvider when nothing available, got %v", err)
    }
}
