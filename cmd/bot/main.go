package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"parcelcity/internal/protocol"
)

// bot is a small scripted client: it connects, drops a building, and then
// watches the day broadcasts. Handy for poking a running server.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		owner    = flag.String("owner", "bot", "owner id for mutations")
		building = flag.String("building", "cottage", "building id to place")
		row      = flag.Int("row", 5, "target row")
		col      = flag.Int("col", 5, "target col")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Owner:           *owner,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s city=%s grid=%d buildings=%d",
				w.SessionID, w.CityParams.CityID, w.CityParams.GridSize, w.Catalogs.BuildingCount)

			place := protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				ActID:           "A_place_1",
				Kind:            protocol.ActPlaceBuilding,
				Row:             *row,
				Col:             *col,
				BuildingID:      *building,
			}
			_ = conn.WriteJSON(place)

			query := protocol.QueryMsg{
				Type:            protocol.TypeQuery,
				ProtocolVersion: protocol.Version,
				QueryID:         "Q_totals_1",
				Kind:            protocol.QueryTotals,
			}
			_ = conn.WriteJSON(query)

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			if ack.Accepted {
				logger.Printf("ACK %s accepted tick=%d", ack.AckFor, ack.ServerTick)
			} else {
				logger.Printf("ACK %s rejected %s: %s", ack.AckFor, ack.Code, ack.Message)
			}

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			for r, sd := range res.Totals {
				logger.Printf("RESULT %s %s supply=%.1f demand=%.1f x%.3f",
					res.QueryID, r, sd.Supply, sd.Demand, res.Multipliers[r])
			}

		case protocol.TypeDay:
			var day protocol.DayMsg
			if err := json.Unmarshal(msg, &day); err != nil {
				continue
			}
			logger.Printf("DAY %d tick=%d auctions=%d digest=%s",
				day.Day, day.ServerTick, len(day.AuctionQueue), short(day.StateDigest))
		}
	}
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
