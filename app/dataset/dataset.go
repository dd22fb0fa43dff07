// Package dataset converts labeled text datasets to the common jsonl form, featurizes them
// and makes training samples. Raw jsonl line is {"label":"human"|"ai","text":...},
// featurized line is {"label":"human"|"ai","features":{...}}.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/umputun/rss-sniffer/lib/features"
	"github.com/umputun/rss-sniffer/lib/linear"
)

// labels of the output contract
const (
	LabelHuman = "human"
	LabelAI    = "ai"
)

// maxReportedErrors limits the number of row errors collected in a single error
const maxReportedErrors = 10

var labelAliases = map[string]string{
	"ai": LabelAI, "gpt": LabelAI, "chatgpt": LabelAI, "llm": LabelAI, "machine": LabelAI, "generated": LabelAI,
	"1": LabelAI, "true": LabelAI,
	"human": LabelHuman, "person": LabelHuman, "real": LabelHuman, "0": LabelHuman, "false": LabelHuman,
}

// field aliases in order of preference
var (
	textFields  = []string{"text", "body", "comment", "content", "message", "selftext", "answer"}
	labelFields = []string{"label", "class", "target", "source", "is_ai", "generated"}
)

// Record is a raw labeled text
type Record struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Featurized is a labeled feature map
type Featurized struct {
	Label    string       `json:"label"`
	Features features.Map `json:"features"`
}

// ParseLabel maps label alias to LabelHuman or LabelAI, case-insensitive
func ParseLabel(v string) (string, bool) {
	res, ok := labelAliases[strings.ToLower(strings.TrimSpace(v))]
	return res, ok
}

// Featurize extracts features of each record. Records with unknown labels are rejected,
// all problems reported together.
func Featurize(records []Record) ([]Featurized, error) {
	res := make([]Featurized, 0, len(records))
	errs := &rowErrors{}
	for i, r := range records {
		label, ok := ParseLabel(r.Label)
		if !ok {
			errs.add(i+1, fmt.Errorf("unknown label %q", r.Label))
			continue
		}
		res = append(res, Featurized{Label: label, Features: features.Extract(r.Text)})
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Samples makes training samples of featurized records, ai is the positive class
func Samples(items []Featurized) ([]linear.Sample, error) {
	res := make([]linear.Sample, 0, len(items))
	errs := &rowErrors{}
	for i, it := range items {
		label, ok := ParseLabel(it.Label)
		if !ok {
			errs.add(i+1, fmt.Errorf("unknown label %q", it.Label))
			continue
		}
		if it.Features == nil {
			errs.add(i+1, errors.New("features are missing"))
			continue
		}
		res = append(res, linear.Sample{X: it.Features, Y: label == LabelAI})
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Counts returns number of human and ai records
func Counts(records []Record) (human, ai int) {
	for _, r := range records {
		switch r.Label {
		case LabelHuman:
			human++
		case LabelAI:
			ai++
		}
	}
	return human, ai
}

// rowErrors collects per-row errors, keeps the first maxReportedErrors and counts the rest
type rowErrors struct {
	errs  *multierror.Error
	total int
}

func (r *rowErrors) add(row int, err error) {
	r.total++
	if r.total <= maxReportedErrors {
		r.errs = multierror.Append(r.errs, fmt.Errorf("row %d: %w", row, err))
	}
}

func (r *rowErrors) err() error {
	if r.total == 0 {
		return nil
	}
	if r.total > maxReportedErrors {
		r.errs = multierror.Append(r.errs, fmt.Errorf("and %d more", r.total-maxReportedErrors))
	}
	return r.errs.ErrorOrNil()
}
