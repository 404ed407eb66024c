// Package regions resolves a spoken region name against the known set of
// states and union territories.
package regions

import (
    "strings"

    "voicesurvey/agent/internal/normalize"
)

type Region struct {
    Name string
    Code string
}

var all = []Region{
    {"Andhra Pradesh", "AP"},
    {"Arunachal Pradesh", "AR"},
    {"Assam", "AS"},
    {"Bihar", "BR"},
    {"Chhattisgarh", "CG"},
    {"Goa", "GA"},
    {"Gujarat", "GJ"},
    {"Haryana", "HR"},
    {"Himachal Pradesh", "HP"},
    {"Jharkhand", "JH"},
    {"Karnataka", "KA"},
    {"Kerala", "KL"},
    {"Madhya Pradesh", "MP"},
    {"Maharashtra", "MH"},
    {"Manipur", "MN"},
    {"Meghalaya", "ML"},
    {"Mizoram", "MZ"},
    {"Nagaland", "NL"},
    {"Odisha", "OR"},
    {"Punjab", "PB"},
    {"Rajasthan", "RJ"},
    {"Sikkim", "SK"},
    {"Tamil Nadu", "TN"},
    {"Telangana", "TG"},
    {"Tripura", "TR"},
    {"Uttar Pradesh", "UP"},
    {"Uttarakhand", "UK"},
    {"West Bengal", "WB"},
    {"Delhi", "DL"},
    {"Jammu & Kashmir", "JK"},
    {"Ladakh", "LA"},
    {"Puducherry", "PY"},
}

// All returns the region table in declaration order.
func All() []Region {
    out := make([]Region, len(all))
    copy(out, all)
    return out
}

// Match resolves an utterance to a region. Tiers, highest priority first:
// exact normalized name, bidirectional substring, two-letter code.
func Match(utterance string) (Region, bool) {
    text := normalize.Normalize(utterance)
    if text == "" {
        return Region{}, false
    }

    for _, r := range all {
        if text == normName(r.Name) {
            return r, true
        }
    }
    for _, r := range all {
        name := normName(r.Name)
        if strings.Contains(text, name) || strings.Contains(name, text) {
            return r, true
        }
    }
    for _, r := range all {
        if text == strings.ToLower(r.Code) {
            return r, true
        }
    }
    return Region{}, false
}

func normName(name string) string {
    return normalize.Normalize(name)
}
