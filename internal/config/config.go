package config

import (
    "fmt"
    "log"
    "strings"

    "github.com/spf13/viper"
)

type Config struct {
    Server struct {
        Port     string
        LogLevel string
    }
    Voice struct {
        Provider        string // synth | bridge | auto
        SpeakCmd        string
        ListenCmd       string
        Language        string
        MaxRetries      int
        SettleMs        int
        StaggerMs       int
        AdvanceMs       int
        NoSpeechRetryMs int
        ErrorRetryMs    int
        EnumRetries     int
    }
    Bridge struct {
        TokenSecret   string
        TokenSkewSecs int
        TokenExpMin   int
    }
    DB struct {
        Driver string
        DSN    string
    }
}

func Load() Config {
    v := viper.New()
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()

    // Defaults
    v.SetDefault("server.port", 8080)
    v.SetDefault("server.log_level", "info")

    v.SetDefault("voice.provider", "auto")
    v.SetDefault("voice.language", "en")
    v.SetDefault("voice.max_retries", 3)
    v.SetDefault("voice.settle_ms", 2000)
    v.SetDefault("voice.stagger_ms", 500)
    v.SetDefault("voice.advance_ms", 1000)
    v.SetDefault("voice.no_speech_retry_ms", 2000)
    v.SetDefault("voice.error_retry_ms", 3000)
    v.SetDefault("voice.enum_retries", 10)

    v.SetDefault("bridge.token_skew_secs", 60)
    v.SetDefault("bridge.token_exp_min", 720)

    v.SetDefault("db.driver", "sqlite")
    v.SetDefault("db.dsn", "file:responses.db?_fk=on")

    // Map envs
    v.BindEnv("server.port", "PORT")
    v.BindEnv("server.log_level", "LOG_LEVEL")

    v.BindEnv("voice.provider", "VOICE_PROVIDER")
    v.BindEnv("voice.speak_cmd", "VOICE_SPEAK_CMD")
    v.BindEnv("voice.listen_cmd", "VOICE_LISTEN_CMD")
    v.BindEnv("voice.language", "VOICE_LANGUAGE")
    v.BindEnv("voice.max_retries", "VOICE_MAX_RETRIES")
    v.BindEnv("voice.settle_ms", "VOICE_SETTLE_MS")
    v.BindEnv("voice.stagger_ms", "VOICE_STAGGER_MS")
    v.BindEnv("voice.advance_ms", "VOICE_ADVANCE_MS")
    v.BindEnv("voice.no_speech_retry_ms", "VOICE_NO_SPEECH_RETRY_MS")
    v.BindEnv("voice.error_retry_ms", "VOICE_ERROR_RETRY_MS")
    v.BindEnv("voice.enum_retries", "VOICE_ENUM_RETRIES")

    v.BindEnv("bridge.token_secret", "BRIDGE_TOKEN_SECRET")
    v.BindEnv("bridge.token_skew_secs", "BRIDGE_TOKEN_SKEW_SECS")
    v.BindEnv("bridge.token_exp_min", "BRIDGE_TOKEN_EXP_MIN")

    v.BindEnv("db.driver", "DB_DRIVER")
    v.BindEnv("db.dsn", "DB_DSN")

    var c Config
    c.Server.Port = toString(v.Get("server.port"))
    c.Server.LogLevel = v.GetString("server.log_level")

    c.Voice.Provider = v.GetString("voice.provider")
    c.Voice.SpeakCmd = v.GetString("voice.speak_cmd")
    c.Voice.ListenCmd = v.GetString("voice.listen_cmd")
    c.Voice.Language = v.GetString("voice.language")
    c.Voice.MaxRetries = v.GetInt("voice.max_retries")
    c.Voice.SettleMs = v.GetInt("voice.settle_ms")
    c.Voice.StaggerMs = v.GetInt("voice.stagger_ms")
    c.Voice.AdvanceMs = v.GetInt("voice.advance_ms")
    c.Voice.NoSpeechRetryMs = v.GetInt("voice.no_speech_retry_ms")
    c.Voice.ErrorRetryMs = v.GetInt("voice.error_retry_ms")
    c.Voice.EnumRetries = v.GetInt("voice.enum_retries")

    c.Bridge.TokenSecret = v.GetString("bridge.token_secret")
    c.Bridge.TokenSkewSecs = v.GetInt("bridge.token_skew_secs")
    c.Bridge.TokenExpMin = v.GetInt("bridge.token_exp_min")

    c.DB.Driver = v.GetString("db.driver")
    c.DB.DSN = v.GetString("db.dsn")

    log.Printf("config loaded: port=%s provider=%s db=%s", c.Server.Port, c.Voice.Provider, c.DB.Driver)
    return c
}

func toString(v any) string { return fmt.Sprint(v) }
