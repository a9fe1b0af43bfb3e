package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diwise/hydroponic-monitor/pkg/types"
)

type rule struct {
	name   string
	active func(types.AlertState) bool
	text   func(types.SensorReading) string
}

// rules are evaluated in this order and each active rule contributes one paragraph.
var rules = []rule{
	{
		name:   "ph_above",
		active: func(s types.AlertState) bool { return s.PHAbove },
		text: func(r types.SensorReading) string {
			return fmt.Sprintf("ph too high, need to add acidic solution ! activate pump 2 %s (pH: %s)", r.PlantProfileName, number(r.PH))
		},
	},
	{
		name:   "ph_below",
		active: func(s types.AlertState) bool { return s.PHBelow },
		text: func(r types.SensorReading) string {
			return fmt.Sprintf("ph too low, need to add alkali solution ! activate pump 1 %s (pH: %s)", r.PlantProfileName, number(r.PH))
		},
	},
	{
		name:   "ec_above",
		active: func(s types.AlertState) bool { return s.ECAbove },
		text: func(r types.SensorReading) string {
			return fmt.Sprintf("ec too high, need to add water ! activate water pump %s (EC: %s)", r.PlantProfileName, number(r.EC))
		},
	},
	{
		name:   "ec_below",
		active: func(s types.AlertState) bool { return s.ECBelow },
		text: func(r types.SensorReading) string {
			return fmt.Sprintf("ec too low, need to add solution A+B ! activate pump 3 %s (EC: %s)", r.PlantProfileName, number(r.EC))
		},
	},
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func compose(r types.SensorReading, s types.AlertState) string {
	paragraphs := []string{}

	for _, rl := range rules {
		if rl.active(s) {
			paragraphs = append(paragraphs, rl.text(r))
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

func activeRules(s types.AlertState) []string {
	names := []string{}
	for _, rl := range rules {
		if rl.active(s) {
			names = append(names, rl.name)
		}
	}
	return names
}
