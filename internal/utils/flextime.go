// internal/utils/flextime.go
package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FlexTime accepts RFC3339 timestamps as well as bare dates in request bodies.
// A JSON null or empty string leaves it unset.
type FlexTime struct {
	time.Time
	Set bool
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid time %s", string(data))
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*t = FlexTime{}
		return nil
	}
	parsed, err := ParseFlexTime(*raw)
	if err != nil {
		return err
	}
	*t = FlexTime{Time: parsed, Set: true}
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if !t.Set {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// Ptr returns nil when the value was absent.
func (t *FlexTime) Ptr() *time.Time {
	if t == nil || !t.Set {
		return nil
	}
	v := t.Time
	return &v
}

// ParseFlexTime parses s with the layouts FlexTime accepts. Dates without a
// zone are read as local time.
func ParseFlexTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range flexTimeLayouts {
		var (
			parsed time.Time
			err    error
		)
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
