package speech

import (
    "bufio"
    "context"
    "errors"
    "log"
    "os"
    "os/exec"
    "strings"
    "sync"
)

// ExecBackend adapts external speak/listen commands into the Synthesizer and
// Recognizer primitives. The speak command receives the prompt text on stdin
// with VOICE_NAME/VOICE_LANG in its environment; the listen command prints
// one recognized utterance per line on stdout.
type ExecBackend struct {
    speakCmd  string
    listenCmd string
    lang      string

    mu     sync.Mutex
    cancel context.CancelFunc
}

func NewExecBackend(speakCmd, listenCmd, lang string) *ExecBackend {
    return &ExecBackend{speakCmd: speakCmd, listenCmd: listenCmd, lang: lang}
}

// Voices reports a single voice named after the resolved speak binary. An
// unresolvable command enumerates empty, which feeds the provider's
// enumeration retry and unvoiced fallback path.
func (b *ExecBackend) Voices() []Voice {
    parts := strings.Fields(b.speakCmd)
    if len(parts) == 0 {
        return nil
    }
    path, err := exec.LookPath(parts[0])
    if err != nil {
        return nil
    }
    return []Voice{{Name: path, Lang: b.lang}}
}

func (b *ExecBackend) Utter(ctx context.Context, v *Voice, text string) error {
    parts := strings.Fields(b.speakCmd)
    if len(parts) == 0 {
        return errors.New("speak command not configured")
    }
    cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
    cmd.Stdin = strings.NewReader(text)
    cmd.Env = os.Environ()
    if v != nil {
        cmd.Env = append(cmd.Env, "VOICE_NAME="+v.Name, "VOICE_LANG="+v.Lang)
    }
    return cmd.Run()
}

func (b *ExecBackend) Start(ctx context.Context, onResult func(text string), onError func(code string)) error {
    parts := strings.Fields(b.listenCmd)
    if len(parts) == 0 {
        return errors.New("listen command not configured")
    }
    runCtx, cancel := context.WithCancel(ctx)
    cmd := exec.CommandContext(runCtx, parts[0], parts[1:]...)
    cmd.Env = append(os.Environ(), "VOICE_LANG="+b.lang)

    stdout, err := cmd.StdoutPipe()
    if err != nil {
        cancel()
        return err
    }
    if err := cmd.Start(); err != nil {
        cancel()
        return err
    }

    b.mu.Lock()
    if b.cancel != nil {
        b.cancel()
    }
    b.cancel = cancel
    b.mu.Unlock()

    go func() {
        sc := bufio.NewScanner(stdout)
        delivered := false
        for sc.Scan() {
            line := strings.TrimSpace(sc.Text())
            if line == "" {
                continue
            }
            delivered = true
            onResult(line)
        }
        err := cmd.Wait()
        if err != nil && runCtx.Err() == nil {
            log.Printf("[speech] listen command exited: %v", err)
            onError("listen_failed")
            return
        }
        if !delivered && runCtx.Err() == nil {
            // Clean exit without output is the no-speech case.
            onResult("")
        }
    }()
    return nil
}

func (b *ExecBackend) Stop() error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.cancel != nil {
        b.cancel()
        b.cancel = nil
    }
    return nil
}
