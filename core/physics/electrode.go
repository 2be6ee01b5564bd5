package physics

import (
	"strings"

	"github.com/kilianp07/h2grid/core/simerr"
)

// Electrode selects the anode or the cathode.
type Electrode string

const (
	Anode   Electrode = "anode"
	Cathode Electrode = "cathode"
)

// ParseElectrode accepts "anode" or "cathode" in any case.
func ParseElectrode(s string) (Electrode, error) {
	e := Electrode(strings.ToLower(strings.TrimSpace(s)))
	if err := e.validate(); err != nil {
		return "", err
	}
	return e, nil
}

func (e Electrode) validate() error {
	switch e {
	case Anode, Cathode:
		return nil
	default:
		return simerr.Invalidf("unknown electrode %q", string(e))
	}
}

func (p ActivationParams) kinetics(e Electrode) (ElectrodeKinetics, error) {
	switch e {
	case Anode:
		return p.Anode, nil
	case Cathode:
		return p.Cathode, nil
	default:
		return ElectrodeKinetics{}, e.validate()
	}
}
