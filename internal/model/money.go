package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// ParseAmount converts a wallet or price value to whole currency units.
// The backend sends integers but nothing stops a float or a quoted number
// from showing up, so fractional values are rounded.
// Examples: "100" → 100, "99.6" → 100, "" → 0
func ParseAmount(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}

// Amount is a JSON number that decodes from either a number or a string.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = 0
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		s = n.String()
	}
	*a = Amount(ParseAmount(s))
	return nil
}
