package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const sendBuffer = 256

// Subscribe upgrades the request and streams the feed of the room named by
// the room_code route parameter. Without the parameter the connection
// receives every room.
func Subscribe(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			hub:      hub,
			conn:     conn,
			roomCode: domain.NormalizeRoomCode(conn.Params("room_code")),
			send:     make(chan []byte, sendBuffer),
		}
		if !hub.attach(client) {
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// RequireUpgrade rejects plain HTTP requests on feed routes.
func RequireUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("allowed", true)
		return c.Next()
	}
}
