// Package speech abstracts prompt playback and speech recognition behind a
// single provider interface with two concrete backends: an in-process
// synthesis/recognition provider and a host-injected bridge provider.
package speech

import (
    "context"
    "errors"
)

var ErrNoProvider = errors.New("no speech provider available")

// Callbacks deliver asynchronous recognition events. Results never arrive as
// a blocking return; the interval between a prompt and its recognized text is
// bounded only by the caller's retry policy.
type Callbacks struct {
    // OnReady fires when the provider has started listening.
    OnReady func()
    // OnResult delivers one recognized utterance. Empty text means the
    // provider heard nothing.
    OnResult func(text string)
    // OnError delivers a provider error code. Never fatal to the caller.
    OnError func(code string)
}

type Provider interface {
    Name() string
    // Available reports whether the provider can be used right now.
    Available() bool
    // Speak plays synthesized audio for text. When alsoListen is set the
    // bridge path transitions straight into listening after playback; the
    // in-process path treats it as a hint and expects an explicit
    // StartListening call.
    Speak(ctx context.Context, text string, alsoListen bool) error
    StartListening(ctx context.Context) error
    StopListening() error
    SetCallbacks(cb Callbacks)
}

// Select picks the provider for a session. mode is "synth", "bridge" or
// "auto"; auto takes the first available in synth, bridge order. Selection
// happens once at session start, not per call.
func Select(mode string, synth, bridge Provider) (Provider, error) {
    switch mode {
    case "synth":
        if synth != nil && synth.Available() {
            return synth, nil
        }
        return nil, ErrNoProvider
    case "bridge":
        if bridge != nil && bridge.Available() {
            return bridge, nil
        }
        return nil, ErrNoProvider
    default:
        if synth != nil && synth.Available() {
            return synth, nil
        }
        if bridge != nil && bridge.Available() {
            return bridge, nil
        }
        return nil, ErrNoProvider
    }
}
