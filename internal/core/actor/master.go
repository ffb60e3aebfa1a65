package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/pi30bridge/internal/adapter/actor"
	"github.com/berfenger/pi30bridge/internal/config"
	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/service"
	. "github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) actor.Actor

type InverterActorProvider func() actor.Actor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck    healthCheckResult
	eventStream           *eventstream.EventStream
	inverterActor         *actor.PID
	mqttActor             *actor.PID
	monitorActor          *actor.PID
	inverterActorProvider InverterActorProvider
	mqttActorProvider     MQTTActorProvider
	commandTimeout        time.Duration
	logger                *zap.Logger
}

type healthCheckResult struct {
	expected       []string
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, inverterActorProvider InverterActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:                config,
		behavior:              actor.NewBehavior(),
		stash:                 &Stash{},
		logger:                ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:           &eventstream.EventStream{},
		inverterActorProvider: inverterActorProvider,
		mqttActorProvider:     mqttActorProvider,
		commandTimeout:        CommandTimeout(config),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

// CommandTimeout bounds how long a caller waits for a command response: every
// transaction stage may use the full inverter timeout, plus scheduling slack.
func CommandTimeout(cfg config.Config) time.Duration {
	return 3*cfg.Inverter.Timeout() + 2*time.Second
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Inverter child
		inverterActorPID, err := state.startInverterActor(ctx)
		if err != nil {
			panic(err)
		}
		state.inverterActor = inverterActorPID

		// start MQTT child
		if state.config.MQTT.Enable {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}

		// start Monitor child
		if state.config.MonitorConfig.Enable {
			monitorActorPID, err := state.startMonitorActor(ctx)
			if err != nil {
				panic(err)
			}
			state.monitorActor = monitorActorPID
		}

		// start HA Discovery
		if state.mqttActor != nil && state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for _, child := range state.children() {
			state.currentHealthCheck.expected = append(state.currentHealthCheck.expected, child.id)
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(child.pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      child.id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.SendCommandRequest:
		state.logger.Debug("master@default SendCommandRequest", zap.String("command", msg.Command))
		ctx.Forward(state.inverterActor)
	case domain.GetDeviceStateRequest:
		if state.monitorActor != nil {
			ctx.Forward(state.monitorActor)
			return
		}
		ForRequest(msg).Respond(ctx, domain.GetDeviceStateResponse{
			State: domain.DeviceState{
				Host: state.config.Inverter.Host,
				Port: int(state.config.Inverter.Port),
			},
		})
	case adactor.ParsedCommand:
		// run MQTT commands through the inverter actor, the response comes back to self
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil {
			return
		}
		req := domain.SendCommandRequest{
			Id:      msg.Command.Id,
			Command: msg.Command.Command,
			Host:    msg.Command.Host,
			Port:    msg.Command.Port,
		}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.inverterActor, req, state.commandTimeout), func(err error) any {
			return domain.SendCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Id:      req.Id,
				Command: req.Command,
				Outcome: pi30.CommunicationError,
			}
		})
	case domain.SendCommandResponse:
		state.logger.Info("master@default command result",
			zap.String("id", msg.Id), zap.String("command", msg.Command), zap.Stringer("outcome", msg.Outcome))
		if state.mqttActor != nil {
			ctx.Send(state.mqttActor, domain.PublishCommandResultRequest{
				Result: service.CommandResultFromResponse(msg),
			})
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", ctx.Self().Id, domain.ACTOR_ID_INVERTER) {
			state.logger.Error("master@default inverter error")
			panic(errors.New("inverter terminated"))
		}
	case *actor.ReceiveTimeout:
		ctx.CancelReceiveTimeout()
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

type childRef struct {
	id  string
	pid *actor.PID
}

func (state *MasterOfPuppetsActor) children() []childRef {
	children := []childRef{{id: domain.ACTOR_ID_INVERTER, pid: state.inverterActor}}
	if state.mqttActor != nil {
		children = append(children, childRef{id: domain.ACTOR_ID_MQTT, pid: state.mqttActor})
	}
	if state.monitorActor != nil {
		children = append(children, childRef{id: domain.ACTOR_ID_MONITOR, pid: state.monitorActor})
	}
	return children
}

func (state *MasterOfPuppetsActor) startInverterActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	inverterProps := actor.PropsFromProducer(func() actor.Actor {
		return state.inverterActorProvider()
	}, actor.WithSupervisor(supervisor))
	inverterActorPID, err := ctx.SpawnNamed(inverterProps, domain.ACTOR_ID_INVERTER)
	if err != nil {
		return nil, err
	}

	return inverterActorPID, nil
}

func (state *MasterOfPuppetsActor) startMonitorActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	monitorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(&state.config, state.inverterActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	monitorActorPID, err := ctx.SpawnNamed(monitorProps, domain.ACTOR_ID_MONITOR)
	if err != nil {
		return nil, err
	}

	return monitorActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.expected = nil
	state.healthy = make(map[string]bool)
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) unhealthy() []string {
	var ids []string
	for _, id := range state.expected {
		if !state.healthy[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if !resp.Healthy {
		resp.State = fmt.Sprintf("unhealthy: %v", state.unhealthy())
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
