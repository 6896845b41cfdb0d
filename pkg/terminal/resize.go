package terminal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/logging"
)

// WatchResize calls fn with the new terminal size every time the process receives SIGWINCH,
// until ctx is done. It blocks; run it in its own goroutine.
func WatchResize(ctx context.Context, f *os.File, fn func(width, height int), logger *zap.Logger) {
	logger = logging.OrNop(logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGWINCH)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			w, h, err := Size(f)
			if err != nil {
				logger.Warn("failed to read terminal size", zap.Error(err))
				continue
			}
			fn(w, h)
		case <-ctx.Done():
			return
		}
	}
}
