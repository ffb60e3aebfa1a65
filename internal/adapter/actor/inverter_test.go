package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/service"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingTransactor never answers before release is closed.
type blockingTransactor struct {
	release chan struct{}
}

func (b *blockingTransactor) Exchange(frame pi30.Frame, host string, port int) pi30.Result {
	<-b.release
	return pi30.Result{Outcome: pi30.Accepted}
}

// recordingTransactor remembers the targets it was asked to reach.
type recordingTransactor struct {
	mu      sync.Mutex
	frames  []pi30.Frame
	targets []string
}

func (r *recordingTransactor) Exchange(frame pi30.Frame, host string, port int) pi30.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	r.targets = append(r.targets, host)
	return pi30.Result{Outcome: pi30.Rejected, Response: []byte("(NAKss\r")}
}

func spawnInverter(t *testing.T, transactor func() *InverterActor) (*actor.ActorSystem, *actor.PID) {
	as := actorutil.NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	pid, err := as.Root.SpawnNamed(actor.PropsFromProducer(func() actor.Actor { return transactor() }), domain.ACTOR_ID_INVERTER)
	require.NoError(t, err)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return as, pid
}

func TestInverterActorSendCommand(t *testing.T) {

	assert := assert.New(t)

	dev, err := pi30.NewTestDevice(pi30.ReplyChecked(pi30.ReplyACK))
	require.NoError(t, err)
	defer dev.Close()

	logger := zap.Must(zap.NewDevelopment())
	client := pi30.NewClient(pi30.ClientOptions{Timeout: 500 * time.Millisecond}, logger, nil)
	defaults := service.CommandDefaults{Host: dev.Host(), Port: dev.Port()}

	as, pid := spawnInverter(t, func() *InverterActor {
		return NewInverterActor(client, defaults, client.MaxDuration()+time.Second, logger)
	})

	res, err := as.Root.RequestFuture(pid, domain.SendCommandRequest{Id: "1", Command: "QPIRI"}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.SendCommandResponse)
	if assert.True(ok) {
		assert.Equal(pi30.Accepted, resp.Outcome)
		assert.Equal(pi30.ResolvedTable, resp.Resolution)
		assert.Equal("1", resp.Id)
		assert.Equal("QPIRI", resp.Command)
		assert.NoError(resp.GetResponseError())
	}

	// hex spelling of the same command puts the same frame on the wire
	res, err = as.Root.RequestFuture(pid, domain.SendCommandRequest{Id: "2", Command: "5150495249"}, 5*time.Second).Result()
	require.NoError(t, err)
	assert.Equal(pi30.ResolvedHex, res.(domain.SendCommandResponse).Resolution)

	frames := dev.Frames()
	if assert.Len(frames, 2) {
		assert.Equal(frames[0], frames[1])
	}
}

func TestInverterActorMissingCommand(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()
	transactor := &recordingTransactor{}
	as, pid := spawnInverter(t, func() *InverterActor {
		return NewInverterActor(transactor, service.CommandDefaults{Host: "127.0.0.1", Port: 26}, time.Second, logger)
	})

	res, err := as.Root.RequestFuture(pid, domain.SendCommandRequest{Command: " "}, 2*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.SendCommandResponse)
	assert.ErrorIs(resp.GetResponseError(), service.ErrCommandMissing)
	assert.Equal(pi30.CommunicationError, resp.Outcome)
	assert.Empty(transactor.frames, "nothing reaches the wire")
}

func TestInverterActorDefaultsAndLiteral(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()
	transactor := &recordingTransactor{}
	as, pid := spawnInverter(t, func() *InverterActor {
		return NewInverterActor(transactor, service.CommandDefaults{Host: "10.1.1.1", Port: 26}, time.Second, logger)
	})

	res, err := as.Root.RequestFuture(pid, domain.SendCommandRequest{Command: "!!"}, 2*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.SendCommandResponse)
	assert.Equal(pi30.Rejected, resp.Outcome)
	assert.Equal(pi30.ResolvedLiteral, resp.Resolution)

	transactor.mu.Lock()
	defer transactor.mu.Unlock()
	assert.Equal([]string{"10.1.1.1"}, transactor.targets)
	assert.Equal(pi30.Frame{0x21, 0x21, 0x94, 0x01, 0x0D}, transactor.frames[0])
}

func TestInverterActorConcurrentAndTimeout(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()
	transactor := &blockingTransactor{release: make(chan struct{})}
	defer close(transactor.release)

	as, pid := spawnInverter(t, func() *InverterActor {
		return NewInverterActor(transactor, service.CommandDefaults{Host: "127.0.0.1", Port: 26}, 300*time.Millisecond, logger)
	})

	// two stuck transactions run side by side, the actor keeps answering
	f1 := as.Root.RequestFuture(pid, domain.SendCommandRequest{Id: "a", Command: "QPI"}, 2*time.Second)
	f2 := as.Root.RequestFuture(pid, domain.SendCommandRequest{Id: "b", Command: "QPI"}, 2*time.Second)

	health, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 200*time.Millisecond).Result()
	require.NoError(t, err)
	assert.True(health.(domain.ActorHealthResponse).Healthy)
	assert.Contains(health.(domain.ActorHealthResponse).State, "2 in flight")

	start := time.Now()
	for _, f := range []*actor.Future{f1, f2} {
		res, err := f.Result()
		require.NoError(t, err)
		resp := res.(domain.SendCommandResponse)
		assert.Equal(pi30.CommunicationError, resp.Outcome, "timed out task is recovered")
		assert.Error(resp.GetResponseError())
	}
	assert.Less(time.Since(start), time.Second)

	assert.Eventually(func() bool {
		res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 200*time.Millisecond).Result()
		return err == nil && res.(domain.ActorHealthResponse).State == "idle, 2 served"
	}, 2*time.Second, 50*time.Millisecond)
}
