package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type taskValue struct {
	Value string
}

func TestBackgroundTaskSuccess(t *testing.T) {

	assert := assert.New(t)

	var got taskValue
	NewBackgroundTaskNoError(nil, func() *taskValue {
		return &taskValue{Value: "ok"}
	}).OnSuccess(func(v taskValue) {
		got = v
	}).Run()

	assert.Equal("ok", got.Value)
}

func TestBackgroundTaskRecoversTimeout(t *testing.T) {

	assert := assert.New(t)

	var got taskValue
	start := time.Now()
	NewBackgroundTaskNoError(nil, func() *taskValue {
		time.Sleep(500 * time.Millisecond)
		return &taskValue{Value: "late"}
	}).WithTimeout(50 * time.Millisecond).Recover(func(err error) taskValue {
		return taskValue{Value: "recovered"}
	}).OnSuccess(func(v taskValue) {
		got = v
	}).Run()

	assert.Equal("recovered", got.Value, "recovered value reaches OnSuccess")
	assert.Less(time.Since(start), 400*time.Millisecond)
}

func TestBackgroundTaskOnError(t *testing.T) {

	assert := assert.New(t)

	boom := errors.New("boom")
	var gotErr error
	called := false
	NewBackgroundTask(nil, func() (*taskValue, error) {
		return nil, boom
	}).OnError(func(err error) {
		gotErr = err
	}).OnSuccess(func(taskValue) {
		called = true
	}).Run()

	assert.ErrorIs(gotErr, boom)
	assert.False(called)
}

func TestBackgroundTaskErrorWithoutHandlers(t *testing.T) {

	assert := assert.New(t)

	called := false
	NewBackgroundTask(nil, func() (*taskValue, error) {
		return nil, errors.New("boom")
	}).OnSuccess(func(taskValue) {
		called = true
	}).Run()

	assert.False(called, "a failed task never reports a zero value")
}

func TestBackgroundTaskPipeTo(t *testing.T) {

	assert := assert.New(t)

	as := NewActorSystemWithZapLogger(zap.NewNop())
	defer as.Shutdown()

	received := make(chan taskValue, 1)
	sink := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if v, ok := ctx.Message().(taskValue); ok {
			received <- v
		}
	}))

	source := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(string); ok {
			NewBackgroundTaskNoError(ctx, func() *taskValue {
				return &taskValue{Value: "piped"}
			}).WithTimeout(time.Second).PipeTo(sink)
		}
	}))
	as.Root.Send(source, "run")

	select {
	case v := <-received:
		assert.Equal("piped", v.Value)
	case <-time.After(2 * time.Second):
		t.Error("task result not delivered")
	}
}
