package cedar

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// PerfResult is the result of one test of one task execution.
type PerfResult struct {
	ID        string     `json:"name"`
	Info      Info       `json:"info"`
	Artifacts []Artifact `json:"artifacts"`
	Rollups   *Rollups   `json:"rollups"`
}

type Info struct {
	Project   string `json:"project"`
	Version   string `json:"version"`
	Variant   string `json:"variant"`
	TaskName  string `json:"task_name"`
	TaskID    string `json:"task_id"`
	Execution int    `json:"execution"`
	TestName  string `json:"test_name"`
	Trial     int    `json:"trial"`
	// Arguments the test was run with, e.g. the node a storage metric was collected on.
	Args map[string]any `json:"args"`
}

// Artifact is a raw metrics file, usually FTDC, produced by a test.
type Artifact struct {
	Type        string `json:"type"`
	Format      string `json:"format"`
	Compression string `json:"compression"`
	Schema      string `json:"schema"`
	DownloadURL string `json:"download_url"`
}

type Rollups struct {
	Stats []Stat `json:"stats"`
}

// Stat is one rollup statistic. Val is kept undecoded so that numbers are reported exactly as the service sent them.
type Stat struct {
	Name    string          `json:"name"`
	Val     json.RawMessage `json:"val"`
	Version int             `json:"version"`
	User    bool            `json:"user"`
}

// Value formats the statistic for a CSV cell: numbers and booleans verbatim, strings unquoted and null as "".
func (s Stat) Value() (string, error) {
	raw := bytes.TrimSpace(s.Val)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", errors.Wrapf(err, "invalid value for statistic %s", s.Name)
		}
		return str, nil
	case '{', '[':
		return "", errors.Errorf("statistic %s has non-scalar value %s", s.Name, truncate(string(raw), 64))
	default:
		return string(raw), nil
	}
}

// Node returns the test arguments as JSON, or "" if there are none.
func (i Info) Node() (string, error) {
	if i.Args == nil {
		return "", nil
	}
	b, err := json.Marshal(i.Args)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
