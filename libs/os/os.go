package os

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type logger interface {
	Info(msg string, keyvals ...interface{})
}

// TrapSignal returns a context that is canceled when the process receives
// SIGINT or SIGTERM, or when the returned cancel function is called.
func TrapSignal(ctx context.Context, logger logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Info("captured signal, exiting...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Kill the running process by sending itself SIGTERM.
func Kill() error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGTERM)
}

func EnsureDir(dir string, mode os.FileMode) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("could not create directory %v: %w", dir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("could not stat directory %v: %w", dir, err)
	case !info.IsDir():
		return fmt.Errorf("path %v exists and is not a directory", dir)
	}
	return nil
}

func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
