package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	message    contracts.AmqpMessage
}

type fakePublisher struct {
	mu      sync.Mutex
	sent    []published
	err     error
	release chan struct{}
}

func (f *fakePublisher) PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{routingKey, message})
	return f.err
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.routingKey)
	}
	return out
}

func (f *fakePublisher) first() contracts.AmqpMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[0].message
}

func runPublisher(t *testing.T, pub MessagePublisher, l *domain.Lobby) *LobbyPublisher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	p := NewLobbyPublisher(pub, logging.NewNopLogger())
	p.Observe(l)
	go p.Run(ctx)
	return p
}

func TestLobbyPublisher_ForwardsRoomLifecycle(t *testing.T) {
	s := notify.NewScheduler(nil)
	f := domain.NewFactory(s)
	l, err := f.NewLobby(domain.LobbyOptions{MinOpenRooms: domain.Int(1), MaxRooms: domain.Int(1)})
	require.NoError(t, err)

	pub := &fakePublisher{}
	runPublisher(t, pub, l)
	s.Flush()

	room := l.Rooms()[0]
	room.Close()
	s.Flush()
	room.End()
	s.Flush()

	want := []string{
		contracts.EventRoomAdded,
		contracts.EventRoomOpened,
		contracts.EventRoomClosed,
		contracts.EventRoomEnded,
		// the ended room frees a slot under the ceiling
		contracts.EventRoomAdded,
		contracts.EventRoomOpened,
	}
	require.Eventually(t, func() bool { return len(pub.keys()) == len(want) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, pub.keys())

	first := pub.first()
	assert.Equal(t, l.ID(), first.LobbyID)
	assert.Equal(t, domain.EventRoomAdd, first.Event)

	var data contracts.RoomEventData
	require.NoError(t, json.Unmarshal(first.Data, &data))
	assert.Equal(t, room.ID(), data.Room.ID)
}

func TestLobbyPublisher_SurvivesBrokerErrors(t *testing.T) {
	s := notify.NewScheduler(nil)
	f := domain.NewFactory(s)
	l, err := f.NewLobby(domain.LobbyOptions{MinOpenRooms: domain.Int(2)})
	require.NoError(t, err)

	pub := &fakePublisher{err: errors.New("connection reset")}
	runPublisher(t, pub, l)

	assert.NotPanics(t, func() { s.Flush() })
	require.Eventually(t, func() bool { return len(pub.keys()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Len(t, l.OpenRooms(), 2)
}

func TestLobbyPublisher_SlowBrokerDoesNotStallLobby(t *testing.T) {
	s := notify.NewScheduler(nil)
	f := domain.NewFactory(s)
	l, err := f.NewLobby(domain.LobbyOptions{MinOpenRooms: domain.Int(1), MaxRooms: domain.Int(3)})
	require.NoError(t, err)

	pub := &fakePublisher{release: make(chan struct{})}
	runPublisher(t, pub, l)
	s.Flush()

	closed := l.Rooms()[0]
	start := time.Now()
	closed.Close()
	s.Flush()

	assert.Less(t, time.Since(start), 200*time.Millisecond)
	require.Len(t, l.OpenRooms(), 1)
	assert.NotEqual(t, closed.ID(), l.OpenRooms()[0].ID())
	assert.Empty(t, pub.keys())

	close(pub.release)
	require.Eventually(t, func() bool { return len(pub.keys()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		contracts.EventRoomAdded,
		contracts.EventRoomOpened,
		contracts.EventRoomClosed,
		contracts.EventRoomAdded,
		contracts.EventRoomOpened,
	}, pub.keys())
}

func TestLobbyPublisher_DropsWhenQueueIsFull(t *testing.T) {
	s := notify.NewScheduler(nil)
	l, err := domain.NewFactory(s).NewLobby(domain.LobbyOptions{MinOpenRooms: domain.Int(2)})
	require.NoError(t, err)

	p := NewLobbyPublisher(&fakePublisher{}, logging.NewNopLogger())
	p.queue = make(chan outgoing, 1)
	p.Observe(l)

	assert.NotPanics(t, func() { s.Flush() })
	assert.Len(t, p.queue, 1)
}

func TestLobbyConsumer_Handle(t *testing.T) {
	c := NewLobbyConsumer(nil, "lobby_events", logging.NewNopLogger())

	data, err := json.Marshal(contracts.RoomEventData{Room: contracts.RoomView{ID: "r-1"}})
	require.NoError(t, err)
	body, err := json.Marshal(contracts.AmqpMessage{LobbyID: "l-1", Event: domain.EventRoomOpen, Data: data})
	require.NoError(t, err)

	assert.NoError(t, c.handle(contracts.EventRoomOpened, body))
	assert.Error(t, c.handle(contracts.EventRoomOpened, []byte("{")))

	bad, err := json.Marshal(contracts.AmqpMessage{Data: []byte("nope")})
	require.NoError(t, err)
	assert.Error(t, c.handle(contracts.EventRoomOpened, bad))
}
