package apisdk_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apisdk "github.com/hilthontt/lobby/api-sdk"
	"github.com/hilthontt/lobby/api-sdk/option"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/configs"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/hilthontt/lobby/internal/infrastructure/repository"
	"github.com/hilthontt/lobby/internal/infrastructure/ws"
	"github.com/hilthontt/lobby/internal/presentation/api"
	"github.com/hilthontt/lobby/internal/presentation/handler/health"
	lobbyHandler "github.com/hilthontt/lobby/internal/presentation/handler/lobby"
	"github.com/hilthontt/lobby/internal/presentation/handler/members"
	"github.com/hilthontt/lobby/internal/presentation/handler/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer runs the full HTTP surface over a lobby with two open rooms of
// two seats each.
func newServer(t *testing.T) (*httptest.Server, *domain.Lobby) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := logging.NewNopLogger()
	scheduler := notify.NewScheduler(nil)
	factory := domain.NewFactory(scheduler)

	l, err := factory.NewLobby(domain.LobbyOptions{
		MinOpenRooms: domain.Int(2),
		MaxRooms:     domain.Int(4),
		RoomOptions: domain.RoomOptions{
			MemberCap:   domain.Int(2),
			CloseOnFull: domain.Bool(true),
		},
	})
	require.NoError(t, err)

	memberRepository := repository.NewMemberRepository(10, time.Hour, logger)
	hub := ws.NewHub(l, factory, memberRepository, []string{"*"}, logger)
	hub.Observe(l)
	go hub.Run(ctx)
	go scheduler.Run(ctx)

	require.Eventually(t, func() bool { return len(l.OpenRooms()) == 2 }, time.Second, 5*time.Millisecond)

	app := api.NewApplication(configs.Config{}, api.Handlers{
		Lobby:     lobbyHandler.NewHandler(l),
		Rooms:     rooms.NewHandler(l, memberRepository, logger),
		Members:   members.NewHandler(factory, memberRepository, logger),
		Health:    health.NewHandler(nil),
		Websocket: hub.ServeWS,
	}, logger, nil)

	srv := httptest.NewServer(app.Mount())
	t.Cleanup(srv.Close)
	return srv, l
}

func newClient(srv *httptest.Server, opts ...option.RequestOption) *apisdk.Client {
	return apisdk.NewClient(append([]option.RequestOption{option.WithBaseURL(srv.URL + "/api")}, opts...)...)
}

func TestClient_LobbyAndHealth(t *testing.T) {
	srv, l := newServer(t)
	client := newClient(srv)
	ctx := context.Background()

	lobby, err := client.Lobby.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, l.ID(), lobby.ID)
	assert.Len(t, lobby.OpenRooms(), 2)
	assert.Equal(t, 4, lobby.MaxRooms)

	updated, err := client.Lobby.Update(ctx, apisdk.LobbyUpdateParams{Name: apisdk.Ptr("Arena")})
	require.NoError(t, err)
	assert.Equal(t, "Arena", updated.Name)

	health, err := client.Health.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestClient_MembersAndRooms(t *testing.T) {
	srv, _ := newServer(t)
	client := newClient(srv)
	ctx := context.Background()

	alice, err := client.Members.New(ctx, apisdk.MemberNewParams{
		Name:       apisdk.Ptr("Alice"),
		Attributes: map[string]any{"team": "red"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)

	bob, err := client.Members.New(ctx, apisdk.MemberNewParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, bob.Name)

	room, err := client.Rooms.New(ctx, apisdk.RoomNewParams{
		Name:       apisdk.Ptr("Duel"),
		Attributes: map[string]any{"map": "dust"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Duel", room.Name)
	assert.Equal(t, 2, room.MemberCap)
	assert.Equal(t, "dust", room.Attributes["map"])

	room, err = client.Rooms.Join(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, room.MemberIDs)

	// bob acts through the member cookie
	room, err = client.Rooms.Join(ctx, room.ID, "", option.WithMemberID(bob.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, room.MemberCount)
	assert.False(t, room.IsOpen)

	got, err := client.Members.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{room.ID}, got.RoomIDs)

	_, err = client.Rooms.Join(ctx, room.ID, alice.ID)
	assert.Equal(t, http.StatusConflict, apisdk.StatusCode(err))

	room, err = client.Rooms.Leave(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, room.MemberIDs)

	room, err = client.Rooms.Open(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, room.IsOpen)

	room, err = client.Rooms.End(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, room.HasEnded)

	list, err := client.Members.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, client.Members.Delete(ctx, alice.ID))
	_, err = client.Members.Get(ctx, alice.ID)
	assert.Equal(t, http.StatusNotFound, apisdk.StatusCode(err))
}

func TestClient_Errors(t *testing.T) {
	srv, _ := newServer(t)
	client := newClient(srv)
	ctx := context.Background()

	_, err := client.Rooms.Get(ctx, "")
	assert.ErrorIs(t, err, apisdk.ErrMissingIDParameter)

	_, err = client.Rooms.Get(ctx, "missing")
	var apiErr *apisdk.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "room not found", apiErr.Message)

	_, err = client.Members.New(ctx, apisdk.MemberNewParams{Name: apisdk.Ptr("")})
	assert.Equal(t, http.StatusBadRequest, apisdk.StatusCode(err))

	assert.Zero(t, apisdk.StatusCode(nil))
}

func TestClient_MiddlewareAndDebugLog(t *testing.T) {
	srv, l := newServer(t)

	var mu sync.Mutex
	var seen []string
	record := func(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		return next(r)
	}

	var buf bytes.Buffer
	client := newClient(srv,
		option.WithMiddleware(record),
		option.WithDebugLog(log.New(&buf, "", 0)),
		option.WithRequestTimeout(5*time.Second),
	)

	ctx := context.Background()
	_, err := client.Lobby.Get(ctx, option.WithMemberID("secret-member"))
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /api/lobby"}, seen)
	assert.Contains(t, buf.String(), "lobby request GET /api/lobby")
	assert.Contains(t, buf.String(), "member_id=[REDACTED]")
	assert.NotContains(t, buf.String(), "c2VjcmV0LW1lbWJlcg==")

	member, err := client.Members.New(ctx, apisdk.MemberNewParams{Name: apisdk.Ptr("Dee")})
	require.NoError(t, err)
	buf.Reset()

	_, err = client.Rooms.Join(ctx, l.OpenRooms()[0].ID(), member.ID)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"memberId":"[REDACTED]"`)
	assert.Contains(t, buf.String(), "lobby response 200")

	buf.Reset()
	_, err = client.Rooms.Get(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "lobby response 404")
}

func TestClient_ResponseInto(t *testing.T) {
	srv, _ := newServer(t)
	client := newClient(srv)

	var res *http.Response
	_, err := client.Members.New(context.Background(), apisdk.MemberNewParams{Name: apisdk.Ptr("Cara")}, option.WithResponseInto(&res))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.NotEmpty(t, res.Cookies())
}
