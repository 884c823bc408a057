package types

// ClientMessage is one inbound line from a connection. Anything that does
// not parse, or carries an unknown type, is dropped without a reply.
type ClientMessage struct {
	Type  string `json:"type"` // "choice" | "rematch"
	Value int    `json:"value,omitempty"`
}

// Event is an outbound broadcast payload. Each variant marshals to the exact
// frame the protocol sends, one JSON text message per event.
type Event interface{ isEvent() }

type Waiting struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Required int    `json:"required"`
}

type StartPlayer struct {
	Name  string `json:"name"`
	IsCPU bool   `json:"isCPU"`
}

type Start struct {
	Type    string        `json:"type"`
	Players []StartPlayer `json:"players"`
}

type StatePlayer struct {
	Name  string `json:"name"`
	Pos   int    `json:"pos"`
	IsCPU bool   `json:"isCPU"`
}

type State struct {
	Type    string        `json:"type"`
	Players []StatePlayer `json:"players"`
}

type RankEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Pos   int    `json:"pos"`
	IsCPU bool   `json:"isCPU"`
}

type Finish struct {
	Type    string      `json:"type"`
	Ranking []RankEntry `json:"ranking"`
}

func (Waiting) isEvent() {}
func (Start) isEvent()   {}
func (State) isEvent()   {}
func (Finish) isEvent()  {}

func NewWaiting(count, required int) Waiting {
	return Waiting{Type: "waiting", Count: count, Required: required}
}

func NewStart(players []StartPlayer) Start {
	return Start{Type: "start", Players: players}
}

func NewState(players []StatePlayer) State {
	return State{Type: "state", Players: players}
}

func NewFinish(ranking []RankEntry) Finish {
	return Finish{Type: "finish", Ranking: ranking}
}
