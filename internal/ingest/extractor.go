package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

// Format identifies the shape of an incoming telemetry payload.
type Format string

const (
	// FormatNative is {"bin_id", "bin_type", "percentage", "timestamp": RFC3339}.
	FormatNative Format = "native"
	// FormatDocument is the document-store export shape:
	// {"bin", "bin_type", "percentage", "timestamp": {"seconds", "nanoseconds"}}.
	FormatDocument Format = "document"
)

// ErrInvalidPayload wraps every decoding or validation failure.
var ErrInvalidPayload = errors.New("invalid telemetry payload")

// DetectFormat determines the payload format from the content type, falling
// back to sniffing the first object's keys.
func DetectFormat(contentType string, body []byte) Format {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "vnd.binwatch.document"):
		return FormatDocument
	case strings.Contains(contentType, "vnd.binwatch.native"):
		return FormatNative
	}

	var probe map[string]json.RawMessage
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
			return FormatNative
		}
		probe = list[0]
	} else if err := json.Unmarshal(trimmed, &probe); err != nil {
		return FormatNative
	}

	if _, ok := probe["bin"]; ok {
		return FormatDocument
	}
	if ts, ok := probe["timestamp"]; ok && bytes.HasPrefix(bytes.TrimSpace(ts), []byte("{")) {
		return FormatDocument
	}
	return FormatNative
}

// ExtractReadings decodes a single reading or an array of readings.
func ExtractReadings(body []byte, format Format) ([]model.FillReading, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}

	var raw []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	} else {
		raw = []json.RawMessage{trimmed}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no readings", ErrInvalidPayload)
	}

	readings := make([]model.FillReading, 0, len(raw))
	for i, item := range raw {
		var (
			r   model.FillReading
			err error
		)
		switch format {
		case FormatDocument:
			r, err = extractDocument(item)
		default:
			r, err = extractNative(item)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %d: %v", ErrInvalidPayload, i, err)
		}
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("%w: reading %d: %v", ErrInvalidPayload, i, err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func extractNative(body []byte) (model.FillReading, error) {
	var in nativeReading
	if err := json.Unmarshal(body, &in); err != nil {
		return model.FillReading{}, err
	}
	if in.Percentage == nil {
		return model.FillReading{}, errors.New("missing percentage")
	}

	r := model.FillReading{
		ID:         in.ID,
		BinID:      in.BinID,
		BinType:    in.BinType,
		Percentage: *in.Percentage,
	}
	if in.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, in.Timestamp)
		if err != nil {
			return model.FillReading{}, fmt.Errorf("timestamp: %w", err)
		}
		r.Timestamp = ts
	}
	return r, nil
}

func extractDocument(body []byte) (model.FillReading, error) {
	var in documentReading
	if err := json.Unmarshal(body, &in); err != nil {
		return model.FillReading{}, err
	}
	if in.Percentage == nil {
		return model.FillReading{}, errors.New("missing percentage")
	}

	r := model.FillReading{
		ID:         in.ID,
		BinID:      in.Bin,
		BinType:    in.BinType,
		Percentage: *in.Percentage,
	}
	if in.Timestamp != nil {
		r.Timestamp = time.Unix(in.Timestamp.Seconds, in.Timestamp.Nanoseconds)
	}
	return r, nil
}

func validate(r model.FillReading) error {
	if strings.TrimSpace(r.BinID) == "" {
		return errors.New("missing bin")
	}
	if r.Percentage < 0 {
		return fmt.Errorf("percentage %.2f is negative", r.Percentage)
	}
	return nil
}

type nativeReading struct {
	ID         string   `json:"id,omitempty"`
	BinID      string   `json:"bin_id"`
	BinType    string   `json:"bin_type"`
	Percentage *float64 `json:"percentage"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

type documentReading struct {
	ID         string             `json:"id,omitempty"`
	Bin        string             `json:"bin"`
	BinType    string             `json:"bin_type"`
	Percentage *float64           `json:"percentage"`
	Timestamp  *documentTimestamp `json:"timestamp,omitempty"`
}

type documentTimestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}
