package models

import "fmt"

// Report is the payload a display submits on every scan cycle, over
// HTTP or MQTT. The whole report replaces the display's previous
// sighting snapshot.
type Report struct {
	DisplayID   string         `json:"displayId"`
	DisplayName string         `json:"displayName,omitempty"`
	Devices     []ReportDevice `json:"devices"`
}

type ReportDevice struct {
	Address string   `json:"address"`
	Name    string   `json:"name,omitempty"`
	RSSI    *float64 `json:"rssi"`
}

// Validate rejects a report before any of it is applied. A single bad
// entry fails the whole report.
func (r *Report) Validate() error {
	if r.DisplayID == "" {
		return fmt.Errorf("displayId is required")
	}
	for i, d := range r.Devices {
		if d.Address == "" {
			return fmt.Errorf("devices[%d]: address is required", i)
		}
		if d.RSSI == nil {
			return fmt.Errorf("devices[%d]: rssi is required", i)
		}
	}
	return nil
}
