package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// Automation holds the myAutomation.h options for EX-CommandStation.
// Track loco IDs are only written for DC and DCX modes but are
// validated whenever TrackManager is configured.
type Automation struct {
	PowerOn         bool
	ConfigureTracks bool
	TrackAMode      string
	TrackALocoID    string
	TrackBMode      string
	TrackBLocoID    string
}

// Generate validates the options and returns the myAutomation.h lines.
// With nothing enabled the result is empty, which callers treat as
// "do not write the file".
func (o Automation) Generate() (lines []string, errs []string) {
	var roster []string

	if o.PowerOn || o.ConfigureTracks {
		lines = append(lines, "AUTOSTART")
	}
	if o.PowerOn {
		lines = append(lines, "POWERON")
	}

	if o.ConfigureTracks {
		for _, track := range []struct {
			name, mode, locoID string
		}{
			{"A", o.TrackAMode, o.TrackALocoID},
			{"B", o.TrackBMode, o.TrackBLocoID},
		} {
			if !validLocoID(track.locoID) {
				errs = append(errs, fmt.Sprintf("Track %s loco/cab ID must be from 1 to 10293", track.name))
			}
			if strings.HasPrefix(track.mode, "DC") {
				lines = append(lines, fmt.Sprintf("SETLOCO(%s) SET_TRACK(%s,%s)", track.locoID, track.name, track.mode))
				roster = append(roster, fmt.Sprintf("ROSTER(%s,\"DC TRACK %s\",\"/* /\")", track.locoID, track.name))
			} else {
				lines = append(lines, fmt.Sprintf("SET_TRACK(%s,%s)", track.name, track.mode))
			}
		}
	}

	if o.PowerOn || o.ConfigureTracks {
		lines = append(lines, "DONE", "")
	}
	lines = append(lines, roster...)

	if len(errs) > 0 {
		return nil, errs
	}
	return lines, nil
}

func validLocoID(id string) bool {
	n, err := strconv.Atoi(id)
	return err == nil && n >= 1 && n <= 10293
}
