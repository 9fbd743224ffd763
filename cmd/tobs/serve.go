package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/google/uuid"
	"github.com/scott-cotton/cli"
	"github.com/signadot/tony-observe/system/obsd/server"
)

const defaultAddr = "localhost:9124"

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}

	if err := agent.Listen(agent.Options{}); err != nil {
		theLog.Warn("gops agent failed", "error", err)
	}
	defer agent.Close()

	serverConfig := server.DefaultConfig()
	if cfg.ConfigFile != "" {
		serverConfig, err = server.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	addr := cfg.Addr
	if addr == defaultAddr && serverConfig.Addr != "" {
		addr = serverConfig.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol when serving stdio
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	srv, err := server.New(ctx, &server.Spec{
		Config: serverConfig,
		Log:    log,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(closeCtx); err != nil {
			theLog.Error("close", "error", err)
		}
	}()

	if cfg.Stdio {
		return srv.ServeConn(ctx, "stdio-"+uuid.NewString(), stdio{Reader: cc.In, Writer: cc.Out})
	}
	if err := srv.StartTCP(addr); err != nil {
		return fmt.Errorf("failed to start TCP listener: %w", err)
	}
	theLog.Info("obsd listening", "addr", srv.TCPAddr())
	<-ctx.Done()
	return nil
}

type stdio struct {
	io.Reader
	io.Writer
}

func (s stdio) Close() error {
	if c, ok := s.Reader.(io.Closer); ok {
		c.Close()
	}
	if c, ok := s.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
