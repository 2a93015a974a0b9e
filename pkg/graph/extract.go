package graph

import (
	"bytes"
	"encoding/json"
)

const zero json.Number = "0"

// FirstValue returns the value of the first point of metric. The boolean is
// false when the series is empty or the point carries no value.
func FirstValue(metric InsightMetric) (json.RawMessage, bool) {
	if len(metric.Values) == 0 {
		return nil, false
	}
	return present(metric.Values[0].Value)
}

// LastValue returns the value of the most recent point of metric
func LastValue(metric InsightMetric) (json.RawMessage, bool) {
	if len(metric.Values) == 0 {
		return nil, false
	}
	return present(metric.Values[len(metric.Values)-1].Value)
}

// NumberOrZero decodes raw as a JSON number. Anything else, including a
// missing value, yields 0 and false.
func NumberOrZero(raw json.RawMessage) (json.Number, bool) {
	if _, ok := present(raw); !ok {
		return zero, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return zero, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return zero, false
	}
	return n, true
}

// ValueOrZero returns raw, or a literal 0 when raw is missing
func ValueOrZero(raw json.RawMessage, ok bool) json.RawMessage {
	if !ok {
		return json.RawMessage(zero)
	}
	return raw
}

// MetricValue extracts a per-post metric from an insights response: the
// first point of the first metric, as a number
func MetricValue(resp *InsightsResponse) (json.Number, bool) {
	if resp == nil || len(resp.Data) == 0 {
		return zero, false
	}
	raw, ok := FirstValue(resp.Data[0])
	if !ok {
		return zero, false
	}
	return NumberOrZero(raw)
}

func present(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return raw, true
}
