// Package feed moves position samples and control messages over websockets.
package feed

import (
	"fmt"

	"centerout/domain/core"
	"centerout/internal/errors"
	"centerout/ports"

	"github.com/tidwall/gjson"
)

// PacketKind classifies a decoded packet.
type PacketKind int

const (
	PacketIgnored PacketKind = iota
	PacketSample
	PacketCommand
)

// Packet is one decoded websocket message.
type Packet struct {
	Kind    PacketKind
	Sample  ports.RawSample
	Command ports.Command
}

// ParsePacket decodes a JSON packet keyed by its "type" field:
//
//	{"type":"xy","x":312,"y":290,"t":1532}
//	{"type":"tgt","tgt":3}
//	{"type":"state","state":"t1_pre"}
//	{"type":"pause"}
//
// "users" and "none" packets are ignored. "t" is optional.
func ParsePacket(data []byte) (Packet, error) {
	if !gjson.ValidBytes(data) {
		return Packet{}, errors.InvalidInput("packet is not valid JSON")
	}
	typ := gjson.GetBytes(data, "type")
	if !typ.Exists() {
		return Packet{}, errors.InvalidInput("packet has no type")
	}

	switch kind := typ.String(); kind {
	case "xy":
		x, y := gjson.GetBytes(data, "x"), gjson.GetBytes(data, "y")
		if x.Type != gjson.Number || y.Type != gjson.Number {
			return Packet{}, errors.InvalidInput("xy packet needs numeric x and y")
		}
		return Packet{Kind: PacketSample, Sample: ports.RawSample{
			X:           x.Float(),
			Y:           y.Float(),
			TimestampMs: core.Millis(gjson.GetBytes(data, "t").Int()),
		}}, nil

	case "tgt":
		tgt := gjson.GetBytes(data, "tgt")
		if tgt.Type != gjson.Number {
			return Packet{}, errors.InvalidInput("tgt packet needs a numeric tgt")
		}
		return Packet{Kind: PacketCommand, Command: ports.Command{Kind: ports.CommandTarget, Target: int(tgt.Int())}}, nil

	case "state":
		return Packet{Kind: PacketCommand, Command: ports.Command{
			Kind:  ports.CommandPhase,
			Phase: gjson.GetBytes(data, "state").String(),
		}}, nil

	case "start", "stop", "pause", "resume", "reset":
		return Packet{Kind: PacketCommand, Command: ports.Command{Kind: ports.CommandKind(kind)}}, nil

	case "users", "none", "params", "cursor":
		return Packet{Kind: PacketIgnored}, nil

	default:
		return Packet{}, errors.InvalidInput(fmt.Sprintf("unsupported packet type %q", kind))
	}
}
