package domain

import "time"

// CommandResult is the rendered result of a command sent through the bridge.
type CommandResult struct {
	Id      string `json:"id"`
	Command string `json:"command"`
	Outcome string `json:"outcome"`
	Status  string `json:"status"`
}

type DeviceState struct {
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Monitored   bool      `json:"monitored"`
	Reachable   bool      `json:"reachable"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastProbe   time.Time `json:"last_probe,omitempty"`
	LatencyMs   int64     `json:"latency_ms"`
	Probes      uint64    `json:"probes"`
	Failures    uint64    `json:"failures"`
}
