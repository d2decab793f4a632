package timeseries

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/perferrors"
)

// Records longer than this are rejected as malformed.
const maxRecordSize = 1024 * 1024

// LoadFile loads every sample in the newline-delimited JSON file at path.
func LoadFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return load(path, f)
}

// Load reads newline-delimited JSON samples from r, one record per line, preserving their order.
// Blank lines are skipped. If any record is invalid or lacks a required field, no samples are
// returned and the error is a *perferrors.ErrMalformedInput.
func Load(r io.Reader) ([]Sample, error) {
	return load("<input>", r)
}

func load(source string, r io.Reader) ([]Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	var samples []Sample
	line := 0
	for scanner.Scan() {
		line++
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		sample, err := parseSample(record)
		if err != nil {
			err.Source = source
			err.Line = line
			return nil, errors.WithStack(err)
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(&perferrors.ErrMalformedInput{
			Source: source,
			Line:   line + 1,
			Cause:  err,
		})
	}
	return samples, nil
}

type sampleRecord struct {
	ID       *number `json:"id"`
	TS       *number `json:"ts"`
	Counters *struct {
		N      *number `json:"n"`
		Ops    *number `json:"ops"`
		Size   *number `json:"size"`
		Errors *number `json:"errors"`
	} `json:"counters"`
	Timers *struct {
		Dur   *number `json:"dur"`
		Total *number `json:"total"`
	} `json:"timers"`
	Gauges *struct {
		State   *number `json:"state"`
		Workers *number `json:"workers"`
		Failed  *number `json:"failed"`
	} `json:"gauges"`
}

func parseSample(record []byte) (Sample, *perferrors.ErrMalformedInput) {
	var r sampleRecord
	if err := json.Unmarshal(record, &r); err != nil {
		return Sample{}, &perferrors.ErrMalformedInput{Message: "invalid JSON", Cause: err}
	}
	if r.Counters == nil {
		return Sample{}, missing("counters")
	}
	if r.Timers == nil {
		return Sample{}, missing("timers")
	}
	if r.Gauges == nil {
		return Sample{}, missing("gauges")
	}

	required := []struct {
		field string
		value *number
	}{
		{"id", r.ID},
		{"ts", r.TS},
		{"counters.n", r.Counters.N},
		{"counters.ops", r.Counters.Ops},
		{"counters.size", r.Counters.Size},
		{"counters.errors", r.Counters.Errors},
		{"timers.dur", r.Timers.Dur},
		{"timers.total", r.Timers.Total},
		{"gauges.state", r.Gauges.State},
		{"gauges.workers", r.Gauges.Workers},
		{"gauges.failed", r.Gauges.Failed},
	}
	for _, f := range required {
		if f.value == nil {
			return Sample{}, missing(f.field)
		}
	}

	return Sample{
		ActorID:   int64(*r.ID),
		Timestamp: time.UnixMilli(int64(*r.TS)).UTC(),
		Counters: Counters{
			N:      int64(*r.Counters.N),
			Ops:    int64(*r.Counters.Ops),
			Size:   int64(*r.Counters.Size),
			Errors: int64(*r.Counters.Errors),
		},
		Timers: Timers{
			Duration: time.Duration(*r.Timers.Dur),
			Total:    time.Duration(*r.Timers.Total),
		},
		Gauges: Gauges{
			State:   int64(*r.Gauges.State),
			Workers: int64(*r.Gauges.Workers),
			Failed:  int64(*r.Gauges.Failed),
		},
	}, nil
}

func missing(field string) *perferrors.ErrMalformedInput {
	return &perferrors.ErrMalformedInput{Field: field, Message: "required field is missing"}
}

// number is an integer metric value. Exporters differ in how they write numbers: integral
// floats (e.g. 1.5e9) are accepted, as are booleans (true = 1), which genny uses for gauges.failed.
type number int64

func (n *number) UnmarshalJSON(data []byte) error {
	s := string(data)
	switch s {
	case "null":
		return errors.New("value is null")
	case "true":
		*n = 1
		return nil
	case "false":
		*n = 0
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = number(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Errorf("%s is not a number", s)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return errors.Errorf("%s is not an integer", s)
	}
	*n = number(f)
	return nil
}
