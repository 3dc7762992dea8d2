package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	// Post delivers an inbound event to the alarm.
	Post(ctx context.Context, event domain.Event) error
	// Snapshot returns the current alarm view.
	Snapshot(ctx context.Context) *domain.Snapshot
	// Subscribe returns a channel of outbound events and a cancel function.
	// The channel is closed when the service shuts down.
	Subscribe(buffer int) (<-chan domain.Event, func())
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// PostEvent validates the kind and posts it as an inbound event.
func (s *Server) PostEvent(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req == nil || req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "event kind is required")
	}

	kind, err := domain.ParseEventKind(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if !kind.IsInbound() {
		return nil, status.Errorf(codes.InvalidArgument, "event kind %q cannot be posted", kind)
	}

	if actor := ActorFromContext(ctx); actor != nil {
		ctx = logger.WithKV(ctx, "hostname", actor.Hostname, "username", actor.Username)
	}

	logger.InfoKV(ctx, "Event posted", "kind", kind)

	if err := s.service.Post(ctx, domain.NewEvent(kind)); err != nil {
		logger.ErrorKV(ctx, "Unable to post event", "kind", kind, "error", err)
		return nil, status.Error(codes.Internal, "unable to post event")
	}

	return new(emptypb.Empty), nil
}

// GetState returns the current alarm snapshot.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return SnapshotToStruct(s.service.Snapshot(ctx)), nil
}

// Watch sends the current snapshot as a state_changed event, then every
// outbound event until the client leaves or the service shuts down.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	events, cancel := s.service.Subscribe(eventbus.DefaultHubBuffer)
	defer cancel()

	snapshot := s.service.Snapshot(ctx)

	current := domain.NewEvent(domain.KindStateChanged)
	current.State = snapshot.State
	current.RunID = snapshot.RunID
	current.Title = snapshot.Title
	current.Progress = snapshot.Progress

	if err := stream.Send(EventToStruct(current)); err != nil {
		return err
	}

	logger.Debug(ctx, "Watcher connected")

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Watcher disconnected")
			return nil
		case event, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "alarm service is shutting down")
			}

			if err := stream.Send(EventToStruct(event)); err != nil {
				return err
			}
		}
	}
}
