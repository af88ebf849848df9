package entity

import "fmt"

type GroupState uint8

const (
	GroupUndefined GroupState = iota
	GroupPureSequence
	GroupImpureSequence
	GroupSet
)

var groupStateNames = [...]string{
	GroupUndefined:      "undefined",
	GroupPureSequence:   "pureSequence",
	GroupImpureSequence: "impureSequence",
	GroupSet:            "set",
}

func (that GroupState) String() string {
	if int(that) < len(groupStateNames) {
		return groupStateNames[that]
	}
	return fmt.Sprintf("GroupState(%d)", uint8(that))
}

func (that GroupState) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *GroupState) UnmarshalText(text []byte) error {
	for state, name := range groupStateNames {
		if name == string(text) {
			*that = GroupState(state)
			return nil
		}
	}
	return fmt.Errorf("unknown group state %q", text)
}

func (that GroupState) IsSequence() bool {
	return that == GroupPureSequence || that == GroupImpureSequence
}

// CardGroup is one meld candidate of a player's hand.
type CardGroup struct {
	Cards      Cards      `json:"cards"`
	GroupState GroupState `json:"groupState"`
	Valid      bool       `json:"valid"`
	// LowAce is set when an ace in the group completes the run as rank 1.
	LowAce bool `json:"lowAce,omitempty"`
}

// FlattenGroups returns every card of every group in order.
func FlattenGroups(groups []CardGroup) Cards {
	var out Cards
	for _, group := range groups {
		out = append(out, group.Cards...)
	}
	return out
}
