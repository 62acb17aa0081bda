package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/marketplace-backend/internal/logger"
)

// SafeGo запускает горутину с перехватом panic.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и перехватом panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic()
		fn(ctx)
	}()
}

func recoverPanic() {
	if r := recover(); r != nil {
		logger.Log.WithField("stack", string(debug.Stack())).Errorf("panic в горутине: %v", r)
	}
}
