package models

import "time"

// Stats is a point-in-time snapshot of forum activity and host load.
type Stats struct {
	Users       int64     `json:"users"`
	Topics      int64     `json:"topics"`
	Messages    int64     `json:"messages"`
	CPUPercent  float64   `json:"cpuPercent"`
	MemPercent  float64   `json:"memPercent"`
	CollectedAt time.Time `json:"collectedAt"`
}
