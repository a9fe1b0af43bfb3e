package types

import (
	"encoding/json"
	"time"
)

type AlertNotified struct {
	PlantProfileName string     `json:"plantProfileName"`
	State            AlertState `json:"state"`
	Message          string     `json:"message"`
	Timestamp        time.Time  `json:"timestamp"`
}

func (a *AlertNotified) ContentType() string {
	return "application/json"
}
func (a *AlertNotified) TopicName() string {
	return "alerts.alertNotified"
}
func (a *AlertNotified) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}
