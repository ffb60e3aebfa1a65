package actor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/mqtt"
	"github.com/berfenger/pi30bridge/internal/util"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	es := &eventstream.EventStream{}
	broker := mqtt.NewTestBroker()
	client := mqtt.NewMQTTClient(broker, cfg.MQTT)

	// parent collects the commands routed up by the mqtt actor
	commands := make(chan ParsedCommand, 4)
	pids := make(chan *actor.PID, 1)
	parent := context.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			pids <- ctx.Spawn(actor.PropsFromProducer(func() actor.Actor {
				return NewMQTTActorWithClient(&cfg, es, client, logger)
			}))
		case ParsedCommand:
			commands <- msg
		}
	}))
	defer context.Stop(parent)

	pid := <-pids
	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(ok)
	assert.True(resp.Healthy)

	assert.Equal([]string{mqtt.MQTT_PAYLOAD_ONLINE}, broker.PublishedOn(client.BridgeStateTopic()))
	assert.True(broker.Subscribed(client.CommandSendTopic()))

	// inbound command
	assert.True(broker.Deliver(client.CommandSendTopic(), `{"command": "QMOD", "id": "c1"}`))
	select {
	case cmd := <-commands:
		assert.Equal("QMOD", cmd.Command.Command)
		assert.Equal("c1", cmd.Command.Id)
	case <-time.After(2 * time.Second):
		t.Error("command not routed to parent")
	}

	// sensor events from the event stream
	es.Publish(domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SENSOR_ID_INVERTER_REACHABLE,
		},
		Value: true,
	})
	es.Publish(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SENSOR_ID_INVERTER_LAST_PROBE,
		},
		Value: "accepted",
	})
	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SENSOR_ID_INVERTER_PROBE_TIME,
		},
		Value: 42,
	})

	assert.Eventually(func() bool {
		return len(broker.PublishedOn(client.SensorStateTopic(domain.SENSOR_ID_INVERTER_PROBE_TIME))) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal([]string{mqtt.MQTT_PAYLOAD_ON}, broker.PublishedOn(client.BinarySensorStateTopic(domain.SENSOR_ID_INVERTER_REACHABLE)))
	assert.Equal([]string{"accepted"}, broker.PublishedOn(client.SensorStateTopic(domain.SENSOR_ID_INVERTER_LAST_PROBE)))
	assert.Equal([]string{"42"}, broker.PublishedOn(client.SensorStateTopic(domain.SENSOR_ID_INVERTER_PROBE_TIME)))

	// command result
	_, err = context.RequestFuture(pid, domain.PublishCommandResultRequest{
		Result: domain.CommandResult{Id: "c1", Command: "QMOD", Outcome: "accepted", Status: "Comando aceptado"},
	}, 2*time.Second).Result()
	require.NoError(t, err)
	published := broker.PublishedOn(client.CommandResultTopic())
	if assert.Len(published, 1) {
		var decoded domain.CommandResult
		assert.NoError(json.Unmarshal([]byte(published[0]), &decoded))
		assert.Equal("Comando aceptado", decoded.Status)
		assert.Equal("c1", decoded.Id)
	}

	// discovery
	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	_, err = context.RequestFuture(pid, domain.PublishDiscoveryRequest{
		Sensors: domain.BridgeSensors(bridge),
	}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.Len(broker.PublishedOn(client.HADiscoverySensorTopic(domain.BridgeSensors(bridge)[0])), 1)

	context.Stop(pid)
	assert.Eventually(func() bool {
		online := broker.PublishedOn(client.BridgeStateTopic())
		return len(online) == 2 && online[1] == mqtt.MQTT_PAYLOAD_OFFLINE
	}, 2*time.Second, 20*time.Millisecond, "offline published on stop")
}
