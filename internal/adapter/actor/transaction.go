package actor

import (
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/port"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// TransactionActor runs a single command against the inverter, replies and
// stops itself.
type TransactionActor struct {
	request    domain.SendCommandRequest
	replyTo    *actor.PID
	transactor port.Transactor
	timeout    time.Duration
	logger     *zap.Logger
}

func NewTransactionActor(request domain.SendCommandRequest, replyTo *actor.PID, transactor port.Transactor,
	timeout time.Duration, logger *zap.Logger) *TransactionActor {
	return &TransactionActor{
		request:    request,
		replyTo:    replyTo,
		transactor: transactor,
		timeout:    timeout,
		logger:     logger.With(zap.String("transaction", request.Id)),
	}
}

func (state *TransactionActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		actorutil.NewBackgroundTaskNoError(ctx, state.transact).
			WithTimeout(state.timeout).
			Recover(func(err error) domain.SendCommandResponse {
				state.logger.Warn("transaction@running task failed", zap.Error(err))
				return domain.SendCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Id:      state.request.Id,
					Command: state.request.Command,
					Outcome: pi30.CommunicationError,
				}
			}).PipeTo(ctx.Self())
	case domain.SendCommandResponse:
		state.logger.Debug("transaction@running done", zap.Stringer("outcome", msg.Outcome), zap.Duration("elapsed", msg.Elapsed))
		if state.replyTo != nil {
			ctx.Send(state.replyTo, msg)
		}
		ctx.Stop(ctx.Self())
	}
}

func (state *TransactionActor) transact() *domain.SendCommandResponse {
	frame, resolution := pi30.EncodeToken(state.request.Command)
	if resolution == pi30.ResolvedLiteral {
		state.logger.Warn("command is neither a known name nor hex, sending its raw bytes",
			zap.String("command", state.request.Command))
	}
	result := state.transactor.Exchange(frame, state.request.Host, state.request.Port)
	if result.Err != nil {
		state.logger.Info("inverter transaction failed",
			zap.String("command", state.request.Command), zap.Stringer("outcome", result.Outcome), zap.Error(result.Err))
	}
	return &domain.SendCommandResponse{
		ActorResponseMixIn: domain.ActorResponseMixIn{
			ResponseError: result.Err,
		},
		Id:         state.request.Id,
		Command:    state.request.Command,
		Outcome:    result.Outcome,
		Resolution: resolution,
		Response:   result.Response,
		Elapsed:    result.Elapsed,
	}
}
