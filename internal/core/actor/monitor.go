package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/pi30bridge/internal/config"
	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/service"
	. "github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MonitorActor probes the inverter periodically and publishes its
// reachability on the event stream.
type MonitorActor struct {
	behavior   actor.Behavior
	stash      *Stash
	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc

	inverterActor *actor.PID
	config        *config.Config
	eventStream   *eventstream.EventStream
	state         domain.DeviceState
	probing       bool

	logger *zap.Logger
}

type monitorTick struct {
}

func NewMonitorActor(config *config.Config, inverterActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *MonitorActor {
	act := &MonitorActor{
		config:        config,
		inverterActor: inverterActor,
		behavior:      actor.NewBehavior(),
		stash:         &Stash{},
		logger:        ActorLogger(domain.ACTOR_ID_MONITOR, logger),
		eventStream:   eventStream,
		state: domain.DeviceState{
			Host:      config.Inverter.Host,
			Port:      int(config.Inverter.Port),
			Monitored: true,
		},
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MonitorActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MonitorActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("monitor@starting started", zap.Duration("interval", state.config.MonitorConfig.PollInterval()))

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first probe right away
		ctx.Send(ctx.Self(), monitorTick{})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("monitor@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MonitorActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("monitor@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MONITOR,
			Healthy: true,
			State:   state.stateName(),
		})
	case monitorTick:
		state.logger.Debug("monitor@default tick")
		if !state.probing {
			state.probe(ctx)
		}
		// schedule next tick
		state.cancelTick = state.scheduler.RequestOnce(state.config.MonitorConfig.PollInterval(), ctx.Self(), monitorTick{})
	case domain.SendCommandResponse:
		state.probing = false
		wasReachable := state.state.Reachable
		state.state = service.ApplyProbe(state.state, msg, time.Now())
		if state.state.Reachable != wasReachable || state.state.Probes == 1 {
			state.logger.Info("monitor@default inverter reachability",
				zap.Bool("reachable", state.state.Reachable), zap.Stringer("outcome", msg.Outcome), zap.Error(msg.GetResponseError()))
		}
		for _, ev := range service.ProbeEvents(state.state) {
			state.eventStream.Publish(ev)
		}
	case domain.GetDeviceStateRequest:
		state.logger.Debug("monitor@default: GetDeviceStateRequest")
		ForRequest(msg).Respond(ctx, domain.GetDeviceStateResponse{
			State: state.state,
		})
	case *actor.Stopping:
		if state.cancelTick != nil {
			state.cancelTick()
		}
	default:
		state.logger.Debug("monitor@default: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MonitorActor) probe(ctx actor.Context) {
	state.probing = true
	req := domain.SendCommandRequest{
		Id:      fmt.Sprintf("probe-%s", uuid.NewString()),
		Command: state.config.MonitorConfig.ProbeCommand,
	}
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.inverterActor, req, CommandTimeout(*state.config)), func(err error) any {
		return domain.SendCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Id:      req.Id,
			Command: req.Command,
			Outcome: pi30.CommunicationError,
		}
	})
}

func (state *MonitorActor) stateName() string {
	if state.probing {
		return "probing"
	}
	return "idle"
}
