package entity

// Event is the name of an outbound real-time event.
type Event string

const (
	EventRoundStarted    Event = "roundStarted"
	EventDealCards       Event = "dealCards"
	EventTurnChanged     Event = "turnChanged"
	EventDrawRes         Event = "drawRes"
	EventDiscardRes      Event = "discardRes"
	EventGroupRes        Event = "groupRes"
	EventDeclareRes      Event = "declareRes"
	EventFinishRes       Event = "finishRes"
	EventDropRes         Event = "dropRes"
	EventReshuffle       Event = "reshuffle"
	EventRoundEnded      Event = "roundEnded"
	EventGameEnd         Event = "gameEnd"
	EventPlayerJoined    Event = "playerJoined"
	EventPlayerLeftTable Event = "playerLeftTable"
	EventReconnectGame   Event = "reconnectGame"
	EventQueued          Event = "queued"
	EventMatchExpired    Event = "matchExpired"
	EventError           Event = "error"
)
