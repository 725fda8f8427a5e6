package strategies

import (
	"time"

	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/censor"
	"github.com/rustyeddy/daybook/sim"
)

// Noop does nothing.
type Noop struct{}

func (Noop) PreOpen(time.Time, *broker.View, sim.Fills, *censor.Data) error  { return nil }
func (Noop) PreClose(time.Time, *broker.View, sim.Fills, *censor.Data) error { return nil }
