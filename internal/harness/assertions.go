package harness

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// checkRun compares a run against its expectations and returns one
// message per mismatch.
func checkRun(want *Expect, got RunResult) []string {
	var msgs []string
	s := got.Summary

	if want.Status != "" && s.Status != want.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", want.Status, s.Status)
		if s.Error != "" {
			msg += " (" + s.Error + ")"
		}
		msgs = append(msgs, msg)
	}
	if want.Stage != "" && string(s.Stage) != want.Stage {
		msgs = append(msgs, fmt.Sprintf("stage: expected %s, got %q", want.Stage, s.Stage))
	}
	if want.Error != "" {
		switch {
		case got.Err == nil:
			msgs = append(msgs, fmt.Sprintf("error: expected %q, run succeeded", want.Error))
		case !strings.Contains(got.Err.Error(), want.Error):
			msgs = append(msgs, fmt.Sprintf("error: expected %q in %q", want.Error, got.Err.Error()))
		}
	}

	msgs = append(msgs, matchFields("summary", s, want.Summary)...)
	msgs = append(msgs, matchFields("counts", got.Counts, want.Counts)...)

	for _, w := range want.Warnings {
		if !containsWarning(s.Warnings, w) {
			msgs = append(msgs, fmt.Sprintf("warnings: no warning contains %q (got %q)", w, s.Warnings))
		}
	}
	return msgs
}

// matchFields checks the numeric JSON fields of v named in want. Only the
// named fields are compared.
func matchFields(kind string, v any, want map[string]int64) []string {
	if len(want) == 0 {
		return nil
	}
	fields, err := numericFields(v)
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", kind, err)}
	}

	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		got, ok := fields[k]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s: unknown field %q", kind, k))
			continue
		}
		if got != want[k] {
			msgs = append(msgs, fmt.Sprintf("%s.%s: expected %d, got %d", kind, k, want[k], got))
		}
	}
	return msgs
}

// numericFields returns the integer-valued top-level JSON fields of v.
func numericFields(v any) (map[string]int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, val := range raw {
		if f, ok := val.(float64); ok {
			out[k] = int64(f)
		}
	}
	return out, nil
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
