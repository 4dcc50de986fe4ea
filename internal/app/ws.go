package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/bantoinese83/boneyard/internal/domino"
	"github.com/bantoinese83/boneyard/internal/domino/service"
)

const eventConnected = "connected"

// wsFrame is one JSON message on the observer socket, matching the
// broadcast envelope: event name plus a data payload that carries the
// post-mutation state.
type wsFrame struct {
	Event string `json:"event"`
	SetID string `json:"set_id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type connectedData struct {
	Message string          `json:"message"`
	State   service.Summary `json:"state"`
}

// websocketHandler streams set mutations to observers. One frame per
// mutation, a connected frame with the initial state first, and a final
// terminal frame before the server closes the socket.
func (h *handler) websocketHandler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		defer func() {
			_ = conn.Close()
		}()

		request := conn.Request()
		if request == nil {
			return
		}
		setID := request.PathValue("set_id")
		encoder := json.NewEncoder(conn)

		sub, initial, err := h.engine.Subscribe(request.Context(), setID)
		if err != nil {
			message := "internal error"
			if errors.Is(err, domino.ErrSetNotFound) {
				message = "set " + setID + " not found or expired"
			}
			_ = encoder.Encode(wsFrame{
				Event: "error",
				SetID: setID,
				Data:  map[string]string{"message": message},
			})
			return
		}
		defer sub.Close()

		if err := encoder.Encode(wsFrame{
			Event: eventConnected,
			SetID: setID,
			Data: connectedData{
				Message: "connected to set " + setID,
				State:   initial,
			},
		}); err != nil {
			return
		}

		// Incoming frames are ignored; the read loop only detects the peer
		// going away so the subscription can be released.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			buf := make([]byte, 512)
			for {
				if _, err := conn.Read(buf); err != nil {
					if !errors.Is(err, io.EOF) {
						log.Printf("websocket read set_id=%s err=%v", setID, err)
					}
					return
				}
			}
		}()

		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				frame := wsFrame{Event: event.Type, SetID: event.SetID, Data: event.Data}
				if err := encoder.Encode(frame); err != nil {
					return
				}
				if event.Terminal() {
					return
				}
			}
		}
	})
}
