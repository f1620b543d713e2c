package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	Convey("Given a hub with two subscribed clients", t, func() {
		hub := NewHub()
		defer hub.Close()

		a := newClient(hub, nil)
		b := newClient(hub, nil)
		hub.register <- a
		hub.register <- b
		time.Sleep(10 * time.Millisecond)

		Convey("Publish delivers the event to every client's send buffer", func() {
			hub.Publish(Event{Tick: 1, Kind: "tick", Payload: 42})
			time.Sleep(10 * time.Millisecond)

			So(len(a.send), ShouldEqual, 1)
			So(len(b.send), ShouldEqual, 1)
			got := <-a.send
			So(got.Tick, ShouldEqual, 1)
			So(got.Kind, ShouldEqual, "tick")
		})

		Convey("a full client buffer drops events instead of blocking the publisher", func() {
			for i := 0; i < clientSendBuffer+5; i++ {
				hub.Publish(Event{Tick: i, Kind: "tick"})
			}
			time.Sleep(20 * time.Millisecond)
			So(len(a.send), ShouldEqual, clientSendBuffer)
		})
	})
}

func TestServerServesWebsocketEvents(t *testing.T) {
	Convey("Given a running telemetry server", t, func() {
		hub := NewHub()
		defer hub.Close()
		srv := NewServer("", hub)
		ts := httptest.NewServer(srv.router)
		defer ts.Close()

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		time.Sleep(20 * time.Millisecond)

		Convey("a published event arrives over the websocket as JSON", func() {
			hub.Publish(Event{Tick: 3, Kind: "tick", Payload: map[string]interface{}{"count": 7.0}})

			var got Event
			So(conn.ReadJSON(&got), ShouldBeNil)
			So(got.Tick, ShouldEqual, 3)
			So(got.Kind, ShouldEqual, "tick")
		})
	})
}
