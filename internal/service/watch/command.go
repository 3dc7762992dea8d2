package watch

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zapcore"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/platform/launcher"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/common"
)

// Options configures the viewer.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// Run connects to the service and shows the viewer until the user quits.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Log lines would tear the alternate screen.
	logger.SetLogger(logger.New(nil, logger.WithLevel(zapcore.FatalLevel)))

	clientOpts := []common.Option{common.WithCallTimeout(cfg.Timeout)}
	if actor, err := common.DetectActor(); err == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, serverAddress, clientOpts...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	// Fail fast with a readable error when the service is down.
	if _, err := client.GetState(ctx); err != nil {
		return fmt.Errorf("alarm service at %s: %w", serverAddress, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	alarmStarted := os.Getenv(launcher.AlarmStartedEnv) == "1"
	model := NewModel(ctx, client, cfg.Timeout, alarmStarted)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		err := client.Watch(ctx, func(event domain.Event) error {
			program.Send(eventMsg(event))
			return nil
		})

		if errors.Is(err, context.Canceled) {
			return
		}

		program.Send(streamClosedMsg{err: err})
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", err)
	}

	return model.err
}
