package models

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a row id read from JSON as a number or a numeric string, the way
// HTML selects post it. An empty string reads as zero.
type ID uint

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(n)
	return nil
}
