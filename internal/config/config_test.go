package config

import (
    "os"
    "testing"
)

func TestLoadDefaults(t *testing.T) {
    // Clear relevant envs
    os.Unsetenv("PORT")
    os.Unsetenv("LOG_LEVEL")
    os.Unsetenv("VOICE_PROVIDER")
    os.Unsetenv("VOICE_MAX_RETRIES")
    os.Unsetenv("DB_DRIVER")

    c := Load()

    if c.Server.Port != "8080" {
        t.Fatalf("expected default port 8080, got %q", c.Server.Port)
    }
    if c.Server.LogLevel != "info" {
        t.Fatalf("expected default log level info, got %q", c.Server.LogLevel)
    }
    if c.Voice.Provider != "auto" {
        t.Fatalf("expected default provider auto, got %q", c.Voice.Provider)
    }
    if c.Voice.MaxRetries != 3 {
        t.Fatalf("expected default max retries 3, got %d", c.Voice.MaxRetries)
    }
    if c.Voice.SettleMs != 2000 || c.Voice.StaggerMs != 500 {
        t.Fatalf("unexpected timing defaults: settle=%d stagger=%d", c.Voice.SettleMs, c.Voice.StaggerMs)
    }
    if c.DB.Driver != "sqlite" {
        t.Fatalf("expected default db driver sqlite, got %q", c.DB.Driver)
    }
}

func TestLoadEnvOverrides(t *testing.T) {
    os.Setenv("VOICE_PROVIDER", "bridge")
    os.Setenv("VOICE_SPEAK_CMD", "espeak-ng --stdin")
    os.Setenv("VOICE_LISTEN_CMD", "vosk-listen")
    os.Setenv("VOICE_SETTLE_MS", "1500")
    os.Setenv("BRIDGE_TOKEN_SECRET", "s3cret")
    defer func() {
        os.Unsetenv("VOICE_PROVIDER")
        os.Unsetenv("VOICE_SPEAK_CMD")
        os.Unsetenv("VOICE_LISTEN_CMD")
        os.Unsetenv("VOICE_SETTLE_MS")
        os.Unsetenv("BRIDGE_TOKEN_SECRET")
    }()

    c := Load()
    if c.Voice.Provider != "bridge" {
        t.Fatalf("expected provider bridge, got %q", c.Voice.Provider)
    }
    if c.Voice.SpeakCmd != "espeak-ng --stdin" || c.Voice.ListenCmd != "vosk-listen" {
        t.Fatalf("expected speech commands from env, got %q / %q", c.Voice.SpeakCmd, c.Voice.ListenCmd)
    }
    if c.Voice.SettleMs != 1500 {
        t.Fatalf("expected settle 1500, got %d", c.Voice.SettleMs)
    }
    if c.Bridge.TokenSecret != "s3cret" {
        t.Fatalf("expected token secret from env, got %q", c.Bridge.TokenSecret)
    }
}
