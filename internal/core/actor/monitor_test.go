package actor

import (
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/pi30bridge/internal/adapter/actor"
	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/service"
	"github.com/berfenger/pi30bridge/internal/util"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonitorActor(t *testing.T) {

	assert := assert.New(t)

	dev, err := pi30.NewTestDevice(pi30.ReplyACK)
	require.NoError(t, err)
	defer dev.Close()

	cfg := util.LoadTestConfig()
	cfg.Inverter.Host = dev.Host()
	cfg.Inverter.Port = uint(dev.Port())
	cfg.MonitorConfig.Enable = true
	cfg.MonitorConfig.PollIntervalMillis = 1000

	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	client := pi30.NewClient(pi30.ClientOptions{Timeout: cfg.Inverter.Timeout()}, logger, nil)
	inverter := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewInverterActor(client, service.CommandDefaults{Host: dev.Host(), Port: dev.Port()}, client.MaxDuration(), logger)
	}))

	es := &eventstream.EventStream{}
	var mu sync.Mutex
	var events []domain.SensorUpdateEvent
	es.Subscribe(func(evt interface{}) {
		if e, ok := evt.(domain.SensorUpdateEvent); ok {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	})

	monitor := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(&cfg, inverter, es, logger)
	}))

	// first probe at start, second one after the poll interval
	assert.Eventually(func() bool {
		res, err := as.Root.RequestFuture(monitor, domain.GetDeviceStateRequest{}, time.Second).Result()
		return err == nil && res.(domain.GetDeviceStateResponse).State.Probes >= 2
	}, 4*time.Second, 100*time.Millisecond)

	res, err := as.Root.RequestFuture(monitor, domain.GetDeviceStateRequest{}, time.Second).Result()
	require.NoError(t, err)
	state := res.(domain.GetDeviceStateResponse).State
	assert.True(state.Reachable)
	assert.Equal("accepted", state.LastOutcome)
	assert.Zero(state.Failures)

	for _, frame := range dev.Frames() {
		assert.Equal(pi30.Encode("QPI"), frame, "probe command on the wire")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(len(events), 6, "three sensor events per probe")

	as.Root.Stop(monitor)
	as.Root.Stop(inverter)
}

func TestMonitorActorUnreachable(t *testing.T) {

	assert := assert.New(t)

	dev, err := pi30.NewTestDevice(pi30.ReplySilent)
	require.NoError(t, err)
	defer dev.Close()

	cfg := util.LoadTestConfig()
	cfg.Inverter.Host = dev.Host()
	cfg.Inverter.Port = uint(dev.Port())
	cfg.Inverter.TimeoutMillis = 200
	cfg.MonitorConfig.PollIntervalMillis = 60000

	logger := zap.NewNop()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	client := pi30.NewClient(pi30.ClientOptions{Timeout: cfg.Inverter.Timeout()}, logger, nil)
	inverter := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewInverterActor(client, service.CommandDefaults{Host: dev.Host(), Port: dev.Port()}, client.MaxDuration(), logger)
	}))
	monitor := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(&cfg, inverter, &eventstream.EventStream{}, logger)
	}))

	assert.Eventually(func() bool {
		res, err := as.Root.RequestFuture(monitor, domain.GetDeviceStateRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		state := res.(domain.GetDeviceStateResponse).State
		return state.Probes == 1 && !state.Reachable && state.Failures == 1 && state.LastOutcome == "communication_error"
	}, 3*time.Second, 50*time.Millisecond)

	as.Root.Stop(monitor)
	as.Root.Stop(inverter)
}
