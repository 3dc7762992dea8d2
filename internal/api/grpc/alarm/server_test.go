package alarm

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

var errTestPost = errors.New("test post error")

// fakeService implements the alarm Service interface for unit testing the transport.
type fakeService struct {
	mu       sync.Mutex
	posted   []domain.Event
	actors   []*domain.Actor
	postErr  error
	snapshot *domain.Snapshot
	events   chan domain.Event
	cancels  int
}

// newFakeService returns a service in PENDING with an open event channel.
func newFakeService() *fakeService {
	return &fakeService{
		snapshot: &domain.Snapshot{State: domain.StatePending, Title: domain.TitleDetecting},
		events:   make(chan domain.Event, 4),
	}
}

// Post records the event and the calling actor.
func (f *fakeService) Post(ctx context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.postErr != nil {
		return f.postErr
	}

	f.posted = append(f.posted, event)
	f.actors = append(f.actors, ActorFromContext(ctx))

	return nil
}

// Snapshot returns the configured snapshot.
func (f *fakeService) Snapshot(context.Context) *domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snapshot.Clone()
}

// Subscribe hands out the shared event channel.
func (f *fakeService) Subscribe(int) (<-chan domain.Event, func()) {
	return f.events, func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.cancels++
	}
}

// postedKinds returns the kinds posted so far.
func (f *fakeService) postedKinds() []domain.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	var kinds []domain.EventKind
	for _, event := range f.posted {
		kinds = append(kinds, event.Kind)
	}

	return kinds
}

// startServer serves svc over an in-memory listener and returns a client.
func startServer(t *testing.T, svc Service) AlarmServiceClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterAlarmServiceServer(server, NewServer(svc))

	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return NewAlarmServiceClient(conn)
}

// TestServer_PostEvent_Validation ensures invalid kinds return InvalidArgument errors.
func TestServer_PostEvent_Validation(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	s := NewServer(svc)
	ctx := context.Background()

	_, err := s.PostEvent(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.PostEvent(ctx, wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.PostEvent(ctx, wrapperspb.String("explode"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Outbound kinds are published by the service only.
	_, err = s.PostEvent(ctx, wrapperspb.String("START_ALARM"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	require.Empty(t, svc.postedKinds())
}

// TestServer_PostEvent_ServiceError maps service failures to Internal.
func TestServer_PostEvent_ServiceError(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	svc.postErr = errTestPost

	_, err := NewServer(svc).PostEvent(context.Background(), wrapperspb.String("fall_detected"))
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_Roundtrip exercises PostEvent and GetState over a real gRPC connection.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	client := startServer(t, svc)

	ctx := WithActor(context.Background(), &domain.Actor{
		Hostname: "test-hostname",
		Username: "test-user",
	})

	_, err := client.PostEvent(ctx, wrapperspb.String("FALL_DETECTED"))
	require.NoError(t, err)

	_, err = client.PostEvent(ctx, wrapperspb.String("stop-alarm"))
	require.NoError(t, err)

	require.Equal(t, []domain.EventKind{domain.KindFallDetected, domain.KindStopAlarm}, svc.postedKinds())

	svc.mu.Lock()
	require.Equal(t, &domain.Actor{Hostname: "test-hostname", Username: "test-user"}, svc.actors[0])
	svc.mu.Unlock()

	_, err = client.PostEvent(ctx, wrapperspb.String("progress"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	svc.mu.Lock()
	svc.snapshot = &domain.Snapshot{
		State:    domain.StateRunning,
		RunID:    "run-1",
		Title:    domain.TitleWaiting,
		Progress: &domain.Progress{Max: 240, Current: 12},
	}
	svc.mu.Unlock()

	state, err := client.GetState(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, svc.Snapshot(context.Background()), StructToSnapshot(state))
}

// TestServer_Watch streams the snapshot, live events and a shutdown status.
func TestServer_Watch(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	client := startServer(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)

	current := StructToEvent(first)
	require.Equal(t, domain.KindStateChanged, current.Kind)
	require.Equal(t, domain.StatePending, current.State)
	require.Equal(t, domain.TitleDetecting, current.Title)

	svc.events <- domain.ProgressEvent("run-1", 240, 32)

	next, err := stream.Recv()
	require.NoError(t, err)

	progress := StructToEvent(next)
	require.Equal(t, domain.KindProgress, progress.Kind)
	require.Equal(t, "run-1", progress.RunID)
	require.Equal(t, &domain.Progress{Max: 240, Current: 32}, progress.Progress)
	require.False(t, progress.At.IsZero())

	close(svc.events)

	_, err = stream.Recv()
	require.Equal(t, codes.Unavailable, status.Code(err))

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()

		return svc.cancels == 1
	}, time.Second, 10*time.Millisecond)
}

// TestEventStruct_KeepsStateChange converts a transition and back.
func TestEventStruct_KeepsStateChange(t *testing.T) {
	t.Parallel()

	event := domain.NewEvent(domain.KindStateChanged)
	event.RunID = "run-7"
	event.State = domain.StateCancelled
	event.Previous = domain.StateRunning

	got := StructToEvent(EventToStruct(event))
	require.Equal(t, event.Kind, got.Kind)
	require.Equal(t, event.RunID, got.RunID)
	require.Equal(t, event.State, got.State)
	require.Equal(t, event.Previous, got.Previous)
	require.True(t, event.At.Equal(got.At))
	require.Nil(t, got.Progress)
}

// TestActorFromContext ignores calls without actor metadata.
func TestActorFromContext(t *testing.T) {
	t.Parallel()

	require.Nil(t, ActorFromContext(context.Background()))

	ctx := WithActor(context.Background(), nil)
	require.Equal(t, context.Background(), ctx)
}
