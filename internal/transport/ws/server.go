package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"parcelcity/internal/protocol"
	"parcelcity/internal/sim/city"
)

type Server struct {
	city *city.City
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(c *city.City, logger *log.Logger) *Server {
	s := &Server{
		city: c,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, owner, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.city.Join() <- city.JoinRequest{SessionID: sessionID, Out: out}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeAct:
				var act protocol.ActMsg
				if err := json.Unmarshal(msg, &act); err != nil {
					continue
				}
				if act.ProtocolVersion != protocol.Version {
					continue
				}
				s.city.Inbox() <- city.ActionEnvelope{SessionID: sessionID, Owner: owner, Act: act}
			case protocol.TypeQuery:
				var q protocol.QueryMsg
				if err := json.Unmarshal(msg, &q); err != nil {
					continue
				}
				if q.ProtocolVersion != protocol.Version {
					continue
				}
				resp := make(chan protocol.ResultMsg, 1)
				s.city.Queries() <- city.QueryRequest{Query: q, Resp: resp}
				res := <-resp
				if b, err := json.Marshal(res); err == nil {
					sendLatest(out, b)
				}
			}
		}

		// Cleanup.
		s.city.Leave() <- sessionID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID, owner string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", "", nil
	}
	owner = hello.Owner
	if owner == "" {
		owner = hello.ClientName
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, 32)

	cfg := s.city.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		CityParams: protocol.CityParams{
			CityID:     cfg.ID,
			GridSize:   cfg.GridSize,
			TickRateHz: cfg.TickRateHz,
			DayTicks:   cfg.DayTicks,
			Seed:       cfg.Seed,
		},
		Catalogs: s.city.CatalogDigests(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", "", nil
	}
	return sessionID, owner, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// sendLatest drops the oldest queued message when the buffer is full so
// the reader never blocks on its own writer.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
