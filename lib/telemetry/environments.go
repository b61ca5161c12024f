package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"enrollments-backend/lib/configutil"
)

var setupTestOnce sync.Once

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once per test binary
func SetupForTesting(serviceName string) func() {
	var tel Telemetry
	setupTestOnce.Do(func() {
		InitSlog(true)
		var err error
		tel, err = SetupFromEnv(context.Background(), serviceName)
		if err != nil {
			panic(err)
		}
	})
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file called
// telemetry.json5, once found it will then use it as a config to setup
// telemetry. when no such file exists the global no-op providers are kept.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("telemetry.json5 not found, telemetry export disabled")
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}
