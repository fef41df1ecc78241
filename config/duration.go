package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NullDuration is a nullable time.Duration in the vein of the types in
// gopkg.in/guregu/null.v3. It decodes Go duration strings ("1m30s") and bare
// numbers, which are read as milliseconds.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

// NewNullDuration returns a NullDuration with the given validity.
func NewNullDuration(d time.Duration, valid bool) NullDuration {
	return NullDuration{Duration: d, Valid: valid}
}

// NullDurationFrom returns a valid NullDuration.
func NullDurationFrom(d time.Duration) NullDuration {
	return NullDuration{Duration: d, Valid: true}
}

// ValueOrZero returns the duration, or 0 when d is not valid.
func (d NullDuration) ValueOrZero() time.Duration {
	if !d.Valid {
		return 0
	}
	return d.Duration
}

// String formats the duration, or returns "" when d is not valid.
func (d NullDuration) String() string {
	if !d.Valid {
		return ""
	}
	return d.Duration.String()
}

// UnmarshalText is used by envconfig. Empty text yields an invalid value.
func (d *NullDuration) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = NullDuration{}
		return nil
	}
	v, err := parseDuration(string(data))
	if err != nil {
		return err
	}
	*d = NullDurationFrom(v)
	return nil
}

// UnmarshalJSON accepts a duration string, a number of milliseconds or null.
func (d *NullDuration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`null`)) {
		*d = NullDuration{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("'%s' is not a valid duration value", string(data))
	}
	*d = NullDurationFrom(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// MarshalJSON writes null for an invalid value and a duration string otherwise.
func (d NullDuration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Duration.String())
}

func parseDuration(s string) (time.Duration, error) {
	if v, err := time.ParseDuration(s); err == nil {
		return v, nil
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a valid duration value", s)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}
