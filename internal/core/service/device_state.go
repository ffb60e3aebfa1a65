package service

import (
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/pkg/pi30"
)

// ApplyProbe folds a probe result into the device state. The inverter counts
// as reachable whenever it answered, whatever the answer was.
func ApplyProbe(state domain.DeviceState, resp domain.SendCommandResponse, at time.Time) domain.DeviceState {
	state.Probes++
	state.Reachable = resp.Outcome != pi30.CommunicationError
	if !state.Reachable {
		state.Failures++
	}
	state.LastOutcome = resp.Outcome.String()
	state.LastProbe = at
	state.LatencyMs = resp.Elapsed.Milliseconds()
	return state
}

// ProbeEvents lists the sensor updates published after a probe.
func ProbeEvents(state domain.DeviceState) []domain.SensorUpdateEvent {
	return []domain.SensorUpdateEvent{
		domain.BinarySensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: domain.SENSOR_ID_INVERTER_REACHABLE,
			},
			Value: state.Reachable,
		},
		domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: domain.SENSOR_ID_INVERTER_LAST_PROBE,
			},
			Value: state.LastOutcome,
		},
		domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: domain.SENSOR_ID_INVERTER_PROBE_TIME,
			},
			Value: float64(state.LatencyMs),
		},
	}
}
