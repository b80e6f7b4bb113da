package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Months is the display order of MonthlyData labels.
var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlyData maps a month label to a value, e.g. average daily irradiance.
type MonthlyData map[string]float64

type MonthValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// Series returns the known months in calendar order followed by any other
// labels sorted lexically.
func (m MonthlyData) Series() []MonthValue {
	series := make([]MonthValue, 0, len(m))
	seen := make(map[string]bool, len(Months))

	for _, month := range Months {
		if v, ok := m[month]; ok {
			series = append(series, MonthValue{Month: month, Value: v})
			seen[month] = true
		}
	}

	var extra []string
	for label := range m {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		series = append(series, MonthValue{Month: label, Value: m[label]})
	}

	return series
}

// Clone returns an independent copy.
func (m MonthlyData) Clone() MonthlyData {
	if m == nil {
		return nil
	}
	out := make(MonthlyData, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MarshalJSON keeps calendar order instead of the lexical key order of encoding/json.
func (m MonthlyData) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, mv := range m.Series() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(mv.Month)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(mv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
