// Package apt decodes the package-manager steps the daemon relays while
// it upgrades packages.
package apt

import (
	"errors"
	"fmt"
	"strconv"
)

// StepKind identifies a package-manager step.
type StepKind string

const (
	StepProcessing    StepKind = "processing"      // Processing triggers for a package
	StepProgress      StepKind = "progress"        // Overall percent complete
	StepSettingUp     StepKind = "setting_up"      // Configuring a package
	StepUnpacking     StepKind = "unpacking"       // Unpacking a new version over an old one
	StepWaitingOnLock StepKind = "waiting_on_lock" // Another process holds the dpkg lock
)

// Keys in the raw step map.
const (
	KeyEvent   = "event"
	KeyPackage = "package"
	KeyPercent = "percent"
	KeyVersion = "version"
	KeyOver    = "over"
)

// ErrMalformedStep is returned when a raw step cannot be decoded.
var ErrMalformedStep = errors.New("malformed package upgrade step")

// Step is a decoded package-manager step. Which fields are set depends on Kind.
type Step struct {
	Kind    StepKind
	Package string
	Version string
	Over    string
	Percent uint8
}

// ParseStep decodes a raw step map as relayed by the daemon.
func ParseStep(raw map[string]string) (Step, error) {
	kind := StepKind(raw[KeyEvent])
	step := Step{Kind: kind}

	switch kind {
	case StepProcessing, StepSettingUp:
		pkg, err := require(raw, KeyPackage)
		if err != nil {
			return Step{}, err
		}
		step.Package = pkg
	case StepUnpacking:
		for key, dst := range map[string]*string{
			KeyPackage: &step.Package,
			KeyVersion: &step.Version,
			KeyOver:    &step.Over,
		} {
			v, err := require(raw, key)
			if err != nil {
				return Step{}, err
			}
			*dst = v
		}
	case StepProgress:
		v, err := require(raw, KeyPercent)
		if err != nil {
			return Step{}, err
		}
		percent, err := strconv.ParseUint(v, 10, 8)
		if err != nil || percent > 100 {
			return Step{}, fmt.Errorf("%w: percent %q", ErrMalformedStep, v)
		}
		step.Percent = uint8(percent)
	case StepWaitingOnLock:
	default:
		return Step{}, fmt.Errorf("%w: unknown event %q", ErrMalformedStep, kind)
	}

	return step, nil
}

func require(raw map[string]string, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedStep, key)
	}
	return v, nil
}
