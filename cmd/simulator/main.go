package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/berfenger/pi30bridge/pkg/pi30"

	"go.uber.org/zap"
)

// canned reply of a protocol id query, framed like the device does
var protocolIdReply = pi30.NewFrame([]byte("(PI30"))

func main() {
	addr := flag.String("addr", "127.0.0.1:26", "listen address")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	zapCfg := zap.NewDevelopmentConfig()
	if !*debug {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	dev, err := pi30.NewTestDeviceOn(*addr, pi30.ReplyChecked(reply), logger)
	if err != nil {
		logger.Error("cannot listen", zap.String("addr", *addr), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("simulated inverter listening", zap.String("addr", dev.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("simulator stopping", zap.Int("connections", dev.Accepted()), zap.Int("frames", len(dev.Frames())))
	dev.Close()
}

func reply(frame pi30.Frame) []byte {
	if cmd, ok := pi30.LookupCommand("QPI"); ok && bytes.Equal(frame.Payload(), cmd) {
		return protocolIdReply
	}
	return pi30.ReplyACK(frame)
}
