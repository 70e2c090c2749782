package status

import (
	"log/slog"
	"sync"
)

var (
	globalService Service
	globalMu      sync.RWMutex
)

// InitService installs the process-wide status service. Calling it again
// replaces the previous instance.
func InitService() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalService = NewService()
	slog.Debug("status service initialized")
	return nil
}

// GetService returns the process-wide status service, creating it on first use.
func GetService() Service {
	globalMu.RLock()
	svc := globalService
	globalMu.RUnlock()
	if svc != nil {
		return svc
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalService == nil {
		slog.Warn("status service not initialized, using default service")
		globalService = NewService()
	}
	return globalService
}

func Info(message string)  { GetService().Info(message) }
func Warn(message string)  { GetService().Warn(message) }
func Error(message string) { GetService().Error(message) }
func Debug(message string) { GetService().Debug(message) }
