package city

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// StateDigest hashes the full grid and edge lattice deterministically.
// Two cities with the same mutation history produce the same digest.
func (c *City) StateDigest() string {
	h := sha256.New()
	var buf [8]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	writeInt(c.grid.Size())
	c.grid.ForEachCell(func(cell *Cell) {
		h.Write([]byte(cell.BuildingID))
		h.Write([]byte{0})
		h.Write([]byte(cell.Owner))
		h.Write([]byte{0})
		writeFloat(cell.Decay)
		writeInt(cell.ConstructionDaysLeft)
		writeFloat(cell.Value.PaidPrice)
		writeFloat(cell.Value.CalculatedValue)
		writeInt(cell.Value.LastAuctionDay)
	})
	c.grid.ForEachEdge(func(e *EdgeParcel) {
		writeInt(int(e.Infra.Roadway))
		flags := 0
		if e.Infra.Sidewalks {
			flags |= 1
		}
		if e.Infra.Bikelanes {
			flags |= 2
		}
		if e.Infra.BusStop != nil {
			flags |= 4
		}
		if e.Infra.SubwayEntrance != nil {
			flags |= 8
		}
		writeInt(flags)
		writeFloat(e.Infra.TotalInvestment)
	})
	return hex.EncodeToString(h.Sum(nil))
}
