package flow

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricPrompts = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "flow_prompts_total",
        Help: "Prompts played per phase",
    }, []string{"phase"})

    metricUtterances = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_utterances_total",
        Help: "Recognized utterances processed",
    })

    metricQueued = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_utterances_queued_total",
        Help: "Utterances queued while a prompt was playing",
    })

    metricDrained = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_utterances_drained_total",
        Help: "Queued utterances replayed after the speaking guard cleared",
    })

    metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "flow_transitions_total",
        Help: "Phase transitions by target phase",
    }, []string{"phase"})

    metricCommits = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "flow_commits_total",
        Help: "Answer commits by question type",
    }, []string{"type"})

    metricReprompts = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_reprompts_total",
        Help: "Re-prompts after no speech, no match or provider errors",
    })

    metricDiscoveryRetries = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_discovery_retries_total",
        Help: "Failed attempts to locate the next unanswered question",
    })

    metricForcedAdvances = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_forced_advances_total",
        Help: "Phase advances forced after retry exhaustion",
    })

    metricSubmits = promauto.NewCounter(prometheus.CounterOpts{
        Name: "flow_submits_total",
        Help: "Form submissions triggered by voice",
    })
)
