package domain

import (
	"time"

	"github.com/berfenger/pi30bridge/pkg/pi30"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_INVERTER     = "inverter"
	ACTOR_ID_MONITOR      = "monitor"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type SendCommandRequest struct {
	ActorRequestMixIn
	Id      string
	Command string
	Host    string
	Port    int
}

type SendCommandResponse struct {
	ActorResponseMixIn
	Id         string
	Command    string
	Outcome    pi30.Outcome
	Resolution pi30.Resolution
	Response   []byte
	Elapsed    time.Duration
}

type GetDeviceStateRequest struct {
	ActorRequestMixIn
}

type GetDeviceStateResponse struct {
	ActorResponseMixIn
	State DeviceState
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishCommandResultRequest struct {
	ActorRequestMixIn
	Result CommandResult
}

type PublishCommandResultResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
