package idea

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Field names as they appear in idea cache files.
const (
	FieldProblem         = "Problem"
	FieldExistingMethods = "Existing Methods"
	FieldMotivation      = "Motivation"
	FieldProposedMethod  = "Proposed Method"
	FieldExperimentPlan  = "Experiment Plan"
)

// Record holds the five narrative fields of a research idea.
type Record struct {
	Problem         string
	ExistingMethods string
	Motivation      string
	ProposedMethod  string
	ExperimentPlan  string
}

// Idea is a titled record. Titles are the de facto identity within one topic.
type Idea struct {
	Title  string
	Record Record
}

// Text returns the title followed by every non-empty field, newline separated.
// This is the string similarity is computed over.
func (i Idea) Text() string {
	parts := []string{i.Title}
	for _, f := range i.Record.fields() {
		if f.value != "" {
			parts = append(parts, f.value)
		}
	}
	return strings.Join(parts, "\n")
}

type field struct {
	key   string
	value string
}

func (r Record) fields() []field {
	return []field{
		{FieldProblem, r.Problem},
		{FieldExistingMethods, r.ExistingMethods},
		{FieldMotivation, r.Motivation},
		{FieldProposedMethod, r.ProposedMethod},
		{FieldExperimentPlan, r.ExperimentPlan},
	}
}

// IsEmpty reports whether every field is blank.
func (r Record) IsEmpty() bool {
	for _, f := range r.fields() {
		if strings.TrimSpace(f.value) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record with its canonical field keys, in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, f := range r.fields() {
		if idx > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.key)
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a JSON object keyed by the canonical field names.
// Values may be strings or nested JSON, which is flattened to text.
// Unknown keys are ignored; an object with none of the known fields is malformed.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrMalformedIdea, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: null record", internalerr.ErrMalformedIdea)
	}
	targets := map[string]*string{
		FieldProblem:         &r.Problem,
		FieldExistingMethods: &r.ExistingMethods,
		FieldMotivation:      &r.Motivation,
		FieldProposedMethod:  &r.ProposedMethod,
		FieldExperimentPlan:  &r.ExperimentPlan,
	}
	found := 0
	for key, dst := range targets {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		text, err := flatten(msg)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", internalerr.ErrMalformedIdea, key, err)
		}
		*dst = text
		found++
	}
	if found == 0 {
		return fmt.Errorf("%w: no known fields", internalerr.ErrMalformedIdea)
	}
	return nil
}

// flatten renders a JSON value as plain text. Objects become "key: value"
// lines in key order, arrays become one line per element.
func flatten(msg json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", err
	}
	var b strings.Builder
	writeValue(&b, v, "")
	return strings.TrimSpace(b.String()), nil
}

func writeValue(b *strings.Builder, v any, indent string) {
	switch t := v.(type) {
	case nil:
	case string:
		b.WriteString(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(indent)
			b.WriteString(k)
			b.WriteString(": ")
			switch t[k].(type) {
			case map[string]any, []any:
				b.WriteByte('\n')
				writeValue(b, t[k], indent+"  ")
			default:
				writeValue(b, t[k], "")
				b.WriteByte('\n')
			}
		}
	case []any:
		for _, e := range t {
			b.WriteString(indent)
			writeValue(b, e, indent+"  ")
			b.WriteByte('\n')
		}
	default:
		fmt.Fprint(b, t)
	}
}
