package core

import (
	"github.com/google/uuid"

	"pkt.systems/sourcecast/schema"
)

func newPlayerID() schema.PlayerID {
	return schema.PlayerID(uuid.NewString())
}
