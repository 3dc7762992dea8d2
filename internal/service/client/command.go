package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/common"
)

// Options configures a single event post.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Event is the event name: fall, stop, screen-off or a full kind name.
	Event string

	// Retry keeps posting while the service is unreachable.
	Retry bool
}

// defaultPushInterval defines retry delay when the service is unreachable.
const defaultPushInterval = 1 * time.Second

// ParseSignal maps a short signal name or a full kind name to an inbound kind.
func ParseSignal(name string) (domain.EventKind, error) {
	switch name {
	case "fall":
		return domain.KindFallDetected, nil
	case "stop":
		return domain.KindStopAlarm, nil
	case "stopped":
		return domain.KindAlarmStopped, nil
	case "screen-off":
		return domain.KindScreenOff, nil
	}

	kind, err := domain.ParseEventKind(name)
	if err != nil {
		return "", err
	}

	if !kind.IsInbound() {
		return "", fmt.Errorf("%w: %q cannot be posted", domain.ErrUnknownEventKind, name)
	}

	return kind, nil
}

// Run posts the event, retrying transient failures when asked to.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-signal")

	kind, err := ParseSignal(opts.Event)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOpts := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// The actor is informational; post anonymously when it cannot be detected.
	if actor, err := common.DetectActor(); err == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	} else {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, clientOpts...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Posting event", "server_address", serverAddress, "kind", kind)

	// attempt tries once, returns (completed, error).
	attempt := func() (bool, error) {
		err := client.PostEvent(ctx, kind)
		if err == nil {
			return true, nil
		}

		if !opts.Retry || !isTransient(err) {
			return false, err
		}

		logger.WarnKV(ctx, "PostEvent failed, retrying", "error", err)

		return false, nil
	}

	if done, err := attempt(); err != nil {
		return err
	} else if done {
		return report(ctx, client, kind)
	}

	ticker := time.NewTicker(defaultPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := attempt()
			if err != nil {
				return err
			}

			if done {
				return report(ctx, client, kind)
			}
		}
	}
}

// isTransient reports whether err may succeed on retry.
func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// report logs the alarm state after a successful post.
func report(ctx context.Context, client *common.Client, kind domain.EventKind) error {
	snapshot, err := client.GetState(ctx)
	if err != nil {
		// The event was delivered; a failed read-back is not fatal.
		logger.WarnKV(ctx, "Event posted, state unavailable", "kind", kind, "error", err)
		return nil
	}

	logger.Infof(ctx, "Event posted: %s", formatSnapshot(snapshot))

	return nil
}

// formatSnapshot converts a snapshot to a readable log message.
func formatSnapshot(snapshot *domain.Snapshot) string {
	if snapshot == nil {
		return "<nil state>"
	}

	result := fmt.Sprintf("state %s (%s)", snapshot.State, snapshot.Title)

	if snapshot.Progress != nil {
		result += fmt.Sprintf(", tick %d/%d", snapshot.Progress.Current, snapshot.Progress.Max)
	}

	if snapshot.RunID != "" {
		result += ", run " + snapshot.RunID
	}

	return result
}
