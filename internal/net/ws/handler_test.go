package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/geo"
	"sightrelay/internal/index"
	"sightrelay/internal/relay"
	"sightrelay/internal/track"
	"sightrelay/internal/wire"
)

func newTestServer(t *testing.T) (*track.Tracker, *httptest.Server) {
	t.Helper()
	tracker := track.New(gamedb.Bundled(), index.NewKeyCache(nil), track.Config{})
	handler := NewHandler(tracker, HandlerConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return tracker, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, env wire.Envelope) {
	t.Helper()
	data, err := wire.Encode(env, wire.ClientToServer)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func handshake(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	hs := wire.NewHandshake("Sightrelay Client", "test")
	sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageHandshake, Handshake: &hs})
}

func testHuntRelay() *relay.Relay {
	return relay.NewHunt(relay.Place{
		Key:    geo.Key{WorldID: 62, ZoneID: 818, InstanceID: 0},
		Coords: geo.Coords{X: 100, Y: 200},
	}, 8653, relay.Hunt{ActorID: 0xAABB, CurrentHP: 50, MaxHP: 100, Players: 1})
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wire.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	env, err := wire.Decode(payload, wire.ServerToClient)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return env
}

func TestRelayIntakeAndSubscribedFanOut(t *testing.T) {
	tracker, srv := newTestServer(t)

	subscriber := dial(t, srv)
	handshake(t, subscriber)
	sendEnvelope(t, subscriber, wire.Envelope{Type: wire.MessageSubscribe, Jurisdiction: "d8"})
	// Heartbeat round trip guarantees the subscription is registered before
	// the report goes in.
	sendEnvelope(t, subscriber, wire.Envelope{Type: wire.MessageHeartbeat})
	if env := readEnvelope(t, subscriber); env.Type != wire.MessageHeartbeat {
		t.Fatalf("expected heartbeat ack, got type %d", env.Type)
	}

	reporter := dial(t, srv)
	handshake(t, reporter)
	payload, err := wire.EncodeRelay(testHuntRelay())
	if err != nil {
		t.Fatalf("encode relay failed: %v", err)
	}
	sendEnvelope(t, reporter, wire.Envelope{Type: wire.MessageRelay, Relay: payload})

	env := readEnvelope(t, subscriber)
	if env.Type != wire.MessageRelay {
		t.Fatalf("expected relay fan-out, got type %d", env.Type)
	}
	rel, err := wire.DecodeRelay(env.Relay)
	if err != nil {
		t.Fatalf("decode fan-out relay failed: %v", err)
	}
	if rel.Hunt == nil || rel.Hunt.ActorID != 0xAABB {
		t.Fatalf("unexpected fan-out relay %+v", rel)
	}

	if tracker.Len() != 1 {
		t.Fatalf("tracker should hold the reported relay")
	}
}

func TestFanOutReachesAllSubscribers(t *testing.T) {
	_, srv := newTestServer(t)

	subscribers := make([]*websocket.Conn, 0, 3)
	for _, jurisdiction := range []string{"d8", "all", "62_818_0"} {
		conn := dial(t, srv)
		handshake(t, conn)
		sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageSubscribe, Jurisdiction: jurisdiction})
		sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageHeartbeat})
		if env := readEnvelope(t, conn); env.Type != wire.MessageHeartbeat {
			t.Fatalf("expected heartbeat ack, got type %d", env.Type)
		}
		subscribers = append(subscribers, conn)
	}

	reporter := dial(t, srv)
	handshake(t, reporter)
	payload, err := wire.EncodeRelay(testHuntRelay())
	if err != nil {
		t.Fatalf("encode relay failed: %v", err)
	}
	sendEnvelope(t, reporter, wire.Envelope{Type: wire.MessageRelay, Relay: payload})

	// Deliveries run concurrently; every matching session gets its copy no
	// matter which order the writes land in.
	for n, conn := range subscribers {
		env := readEnvelope(t, conn)
		if env.Type != wire.MessageRelay {
			t.Fatalf("subscriber %d: expected relay fan-out, got type %d", n, env.Type)
		}
		rel, err := wire.DecodeRelay(env.Relay)
		if err != nil {
			t.Fatalf("subscriber %d: decode fan-out relay failed: %v", n, err)
		}
		if rel.Hunt == nil || rel.Hunt.ActorID != 0xAABB {
			t.Fatalf("subscriber %d: unexpected fan-out relay %+v", n, rel)
		}
	}
}

func TestSubscribeReplaysSnapshot(t *testing.T) {
	tracker, srv := newTestServer(t)
	if _, changed := tracker.Upsert(testHuntRelay()); !changed {
		t.Fatalf("seed upsert failed")
	}

	conn := dial(t, srv)
	handshake(t, conn)
	sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageSubscribe, Jurisdiction: "z818"})

	env := readEnvelope(t, conn)
	if env.Type != wire.MessageRelay {
		t.Fatalf("expected snapshot relay, got type %d", env.Type)
	}
}

func TestHeartbeatCarriesJurisdictionStats(t *testing.T) {
	tracker, srv := newTestServer(t)
	tracker.Upsert(testHuntRelay())

	conn := dial(t, srv)
	handshake(t, conn)
	sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageHeartbeat})

	env := readEnvelope(t, conn)
	if env.Type != wire.MessageHeartbeat {
		t.Fatalf("expected heartbeat, got type %d", env.Type)
	}
	if env.Stats["62_818_0"] != 1 || env.Stats["all"] != 1 {
		t.Fatalf("heartbeat stats missing index keys: %v", env.Stats)
	}
}

func TestRejectsBadHandshake(t *testing.T) {
	_, srv := newTestServer(t)

	conn := dial(t, srv)
	hs := wire.NewHandshake("Sightrelay Client", "test")
	hs.Secret[0] ^= 0xff
	sendEnvelope(t, conn, wire.Envelope{Type: wire.MessageHandshake, Handshake: &hs})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the server to close on a bad handshake")
	}
}
