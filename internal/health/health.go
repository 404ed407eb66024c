package health

import (
    "context"
    "fmt"
    "time"

    "voicesurvey/agent/internal/config"
    "voicesurvey/agent/internal/store"
)

type CheckResult struct {
    Name    string        `json:"name"`
    OK      bool          `json:"ok"`
    Latency time.Duration `json:"latency_ms"`
    Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
    OK        bool          `json:"ok"`
    Checks    []CheckResult `json:"checks"`
    CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
    status := "OK"
    if !h.OK {
        status = "FAIL"
    }
    s := fmt.Sprintf("Health: %s\n", status)
    for _, c := range h.Checks {
        mark := "✓"
        if !c.OK {
            mark = "✗"
        }
        s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
        if c.Error != "" {
            s += fmt.Sprintf(" - %s", c.Error)
        }
        s += "\n"
    }
    return s
}

// CheckAll runs all health checks and returns combined status
func CheckAll(ctx context.Context, cfg config.Config, rs store.ResponseStore) HealthStatus {
    checks := []CheckResult{
        checkResponseStore(ctx, rs),
    }
    if cfg.Voice.Provider == "bridge" || cfg.Voice.Provider == "auto" {
        checks = append(checks, checkBridgeAuth(cfg))
    }

    allOK := true
    for _, c := range checks {
        if !c.OK {
            allOK = false
        }
    }

    return HealthStatus{
        OK:        allOK,
        Checks:    checks,
        CheckedAt: time.Now().UTC(),
    }
}

func checkResponseStore(ctx context.Context, rs store.ResponseStore) CheckResult {
    start := time.Now()
    result := CheckResult{Name: "response_store"}

    if rs == nil {
        // Persistence disabled on purpose; not a failure.
        result.OK = true
        result.Latency = time.Since(start)
        return result
    }
    if err := rs.Ping(ctx); err != nil {
        result.Error = fmt.Sprintf("ping failed: %v", err)
        result.Latency = time.Since(start)
        return result
    }
    result.Latency = time.Since(start)
    result.OK = true
    return result
}

func checkBridgeAuth(cfg config.Config) CheckResult {
    result := CheckResult{Name: "bridge_auth"}
    if cfg.Bridge.TokenSecret == "" {
        result.Error = "BRIDGE_TOKEN_SECRET not set"
        return result
    }
    result.OK = true
    return result
}
