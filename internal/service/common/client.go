//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/viktoriya-kutsarova/project-gravity/internal/api/grpc/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm service.
	conn *grpc.ClientConn
	// api is the AlarmService client.
	api api.AlarmServiceClient

	// callTimeout is the default timeout for unary RPC calls.
	callTimeout time.Duration
	// actor is attached to every posted event when set.
	actor *domain.Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller on posted events.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errWatchHandlerRequired is returned when Watch has nowhere to deliver events.
	errWatchHandlerRequired = errors.New("watch handler must be provided")
)

// Dial establishes a gRPC connection to the alarm service.
// Note: this uses insecure transport credentials; the service is meant to
// listen on loopback or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial alarm service: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewAlarmServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// PostEvent sends an inbound event kind to the service.
func (c *Client) PostEvent(ctx context.Context, kind domain.EventKind) error {
	if !kind.IsInbound() {
		return fmt.Errorf("%w: %q is not an inbound event", domain.ErrUnknownEventKind, kind)
	}

	callCtx, cancel := c.callContext(api.WithActor(ctx, c.actor))
	defer cancel()

	if _, err := c.api.PostEvent(callCtx, wrapperspb.String(string(kind))); err != nil {
		return fmt.Errorf("post %s: %w", kind, err)
	}

	return nil
}

// GetState retrieves the current alarm snapshot.
func (c *Client) GetState(ctx context.Context) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetState(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get alarm state: %w", err)
	}

	return api.StructToSnapshot(resp), nil
}

// Watch streams service events to handle until ctx ends, the stream ends or
// handle returns an error. The call timeout does not apply to the stream.
func (c *Client) Watch(ctx context.Context, handle func(domain.Event) error) error {
	if handle == nil {
		return errWatchHandlerRequired
	}

	stream, err := c.api.Watch(ctx, new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch alarm: %w", err)
	}

	for {
		msg, err := stream.Recv()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("receive alarm event: %w", err)
		}

		if err := handle(api.StructToEvent(msg)); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
