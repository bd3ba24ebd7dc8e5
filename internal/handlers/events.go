package handlers

import (
	"context"
	"errors"
	"log"

	"chatcord-server/internal/models"
	"chatcord-server/internal/presence"
	"chatcord-server/internal/rooms"
	"chatcord-server/internal/session"
	"chatcord-server/internal/utils"

	"github.com/gofiber/websocket/v2"
)

// HandleEvent dispatches one inbound frame to the session controller and
// reports failures back to the originating connection only.
func HandleEvent(msgType int, msg []byte, ctrl *session.Controller, hub *Hub, username, connID string) {
	if msgType != websocket.TextMessage {
		return
	}

	var evt models.WSEvent
	if err := utils.SafeJSONParse(msg, &evt); err != nil {
		utils.LogError(err, "JSON Parse")
		return
	}

	// The authenticated identity wins over whatever the client sent.
	evt.Username = username

	ctx := context.Background()

	switch evt.Event {
	case models.EventJoin:
		if err := ctrl.Join(ctx, connID, evt.Username); err != nil {
			hub.ToConn(connID, models.WSEvent{Event: models.EventJoinError, Reason: joinErrorReason(err)})
		}
	case models.EventCreateRoom:
		if err := ctrl.CreateRoom(ctx, evt.Room); err != nil {
			hub.ToConn(connID, errorEvent(err))
		}
	case models.EventSwitchRoom:
		if err := ctrl.SwitchRoom(ctx, connID, evt.Room); err != nil {
			hub.ToConn(connID, errorEvent(err))
		}
	case models.EventSendMessage:
		if err := ctrl.SendMessage(ctx, connID, evt.Text); err != nil {
			hub.ToConn(connID, errorEvent(err))
		}
	default:
		log.Printf("Unknown event: %s", evt.Event)
	}
}

func joinErrorReason(err error) string {
	switch {
	case errors.Is(err, presence.ErrAlreadyOnline):
		return "This username is already taken. Please choose another."
	case errors.Is(err, session.ErrEmptyUsername):
		return err.Error()
	}
	utils.LogError(err, "join")
	return "server error"
}

func errorEvent(err error) models.WSEvent {
	switch {
	case errors.Is(err, session.ErrEmptyRoomName),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, rooms.ErrReservedRoom):
		return models.WSEvent{Event: models.EventError, Reason: err.Error()}
	}
	utils.LogError(err, "handle event")
	return models.WSEvent{Event: models.EventError, Reason: "server error"}
}
