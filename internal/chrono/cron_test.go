package chrono

import (
	"testing"
	"time"

	"enrollments-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	c := NewStandardCron(telemetry.NewRecorderAPI())
	defer c.Stop()

	fired := make(chan struct{}, 1)
	err := c.Cron("@every 1s", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback did not run")
	}

	require.Error(t, c.Cron("not a spec", func() {}))
}

func TestCronLoggerParams(t *testing.T) {
	l := cronLogger{tel: telemetry.NewRecorderAPI()}
	require.Equal(t, []any{"entry: 1", "next: soon"}, l.formatParams([]any{"entry", 1, "next", "soon", "dangling"}))
}
