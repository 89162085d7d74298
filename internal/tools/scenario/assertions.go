package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls how failed expectations are reported.
type AssertionMode int

const (
	// AssertionStrict stops the scenario at the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and keeps going.
	AssertionLogOnly
)

// Assertions reports failed expectations according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports a failed expectation. It returns an error only in strict
// mode.
func (a Assertions) Failf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if a.Mode == AssertionStrict {
		return err
	}
	if a.Logger != nil {
		a.Logger.Printf("expectation failed: %v", err)
	}
	return nil
}
