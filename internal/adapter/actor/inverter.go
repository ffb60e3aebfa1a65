package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/port"
	"github.com/berfenger/pi30bridge/internal/core/service"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// InverterActor owns the inverter transport. Each command runs in its own
// transaction child, so slow or silent inverters never block other requests.
type InverterActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	transactor  port.Transactor
	defaults    service.CommandDefaults
	taskTimeout time.Duration
	inFlight    int
	served      uint64
	logger      *zap.Logger
}

func NewInverterActor(transactor port.Transactor, defaults service.CommandDefaults, taskTimeout time.Duration, logger *zap.Logger) *InverterActor {
	act := &InverterActor{
		transactor:  transactor,
		defaults:    defaults,
		taskTimeout: taskTimeout,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_INVERTER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *InverterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *InverterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("inverter@starting started",
			zap.String("host", state.defaults.Host), zap.Int("port", state.defaults.Port))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("inverter@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *InverterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("inverter@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_INVERTER,
			Healthy: true,
			State:   state.stateName(),
		})
	case domain.SendCommandRequest:
		replyTo := actorutil.ForRequest(msg).ReplyTo(ctx)
		req, err := state.defaults.Normalize(msg)
		if err != nil {
			state.logger.Debug("inverter@default invalid command", zap.Error(err))
			if replyTo != nil {
				ctx.Send(replyTo, domain.SendCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Id:      msg.Id,
					Command: msg.Command,
					Outcome: pi30.CommunicationError,
				})
			}
			return
		}
		state.logger.Debug("inverter@default SendCommandRequest",
			zap.String("id", req.Id), zap.String("command", req.Command),
			zap.String("host", req.Host), zap.Int("port", req.Port))

		props := actor.PropsFromProducer(func() actor.Actor {
			return NewTransactionActor(req, replyTo, state.transactor, state.taskTimeout, state.logger)
		})
		ctx.Spawn(props)
		state.inFlight++
		state.served++
	case *actor.Terminated:
		// a transaction child finished
		if state.inFlight > 0 {
			state.inFlight--
		}
	default:
		state.logger.Debug("inverter@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *InverterActor) stateName() string {
	if state.inFlight == 0 {
		return fmt.Sprintf("idle, %d served", state.served)
	}
	return fmt.Sprintf("%d in flight, %d served", state.inFlight, state.served)
}
