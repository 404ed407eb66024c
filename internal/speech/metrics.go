package speech

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricSpeaks = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "speech_speaks_total",
        Help: "Prompts sent to a provider",
    }, []string{"provider"})

    metricListenStarts = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "speech_listen_starts_total",
        Help: "Recognition starts per provider",
    }, []string{"provider"})

    metricProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "speech_provider_errors_total",
        Help: "Recognition errors surfaced by providers",
    }, []string{"provider"})

    metricVoiceEnumRetries = promauto.NewCounter(prometheus.CounterOpts{
        Name: "speech_voice_enum_retries_total",
        Help: "Voice enumeration retries before speaking",
    })

    metricUnvoicedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
        Name: "speech_unvoiced_fallbacks_total",
        Help: "Utterances spoken with the default voice after enumeration exhaustion",
    })
)
