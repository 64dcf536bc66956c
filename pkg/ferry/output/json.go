package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// document is the structured form shared by the json and yaml formatters.
type document struct {
	Operation string   `json:"operation" yaml:"operation"`
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Source    string   `json:"source" yaml:"source"`
	Target    string   `json:"target,omitempty" yaml:"target,omitempty"`
	Items     []Item   `json:"items,omitempty" yaml:"items,omitempty"`
	Totals    totals   `json:"totals" yaml:"totals"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Aborted   bool     `json:"aborted" yaml:"aborted"`
}

type totals struct {
	Totals     `yaml:",inline"`
	BytesHuman string `json:"bytes_human" yaml:"bytes_human"`
	Elapsed    string `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
}

func buildDocument(r *Result) document {
	return document{
		Operation: string(r.Operation),
		ID:        r.ID,
		Source:    r.Source,
		Target:    r.Target,
		Items:     r.Items,
		Totals: totals{
			Totals:     r.Totals,
			BytesHuman: types.FormatSize(r.Totals.Bytes),
			Elapsed:    formatDurationString(r.Totals.Elapsed),
		},
		Warnings: r.Warnings,
		Aborted:  r.Aborted,
	}
}

// formatDurationString returns "" for zero so the field is omitted.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per item, for streaming
// into tools like jq. Summaries are written as a single totals object.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	if !r.Listing() {
		data, err := json.Marshal(buildDocument(r))
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
		return nil
	}

	for _, it := range r.Items {
		data, err := json.Marshal(it)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
