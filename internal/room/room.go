package room

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steprace/backend/internal/game"
	"github.com/steprace/backend/internal/types"
)

var ErrRoomFull = errors.New("room full")
var ErrRoundInProgress = errors.New("round in progress")

type Msg interface{ isRoomMsg() }

// Join admits a human. Requested is the desired join threshold; only the
// first admission's value sticks.
type Join struct {
	Name      string
	Requested int
	Outbox    chan types.Event // where this client receives broadcasts
	Reply     chan JoinReply
}

type JoinReply struct {
	ID  string
	Err error
}

type Choice struct {
	ID    string
	Value int
}

type Rematch struct{ ID string }

type Leave struct{ ID string }

type Shutdown struct{}

type GetState struct {
	Reply chan View
}

func (Join) isRoomMsg()     {}
func (Choice) isRoomMsg()   {}
func (Rematch) isRoomMsg()  {}
func (Leave) isRoomMsg()    {}
func (Shutdown) isRoomMsg() {}
func (GetState) isRoomMsg() {}

// View reflects internal state without data races; test-only.
type View struct {
	Required   int
	Started    bool
	NumClients int
	Players    []game.Player
}

// Recorder receives final rankings. Implementations must tolerate being
// called from outside the room goroutine.
type Recorder interface {
	RecordFinish(ctx context.Context, room string, ranking []game.RankEntry) error
}

// Room owns one race: the roster, the round state, and the fan-out to every
// connected client. All mutation happens on the loop goroutine, fed through
// the inbox, so no operation can race another on the same room.
type Room struct {
	name     string
	inbox    chan Msg
	settings game.Settings
	required int // join threshold, fixed by the first admission
	started  bool
	roster   []*game.Player
	clients  map[string]chan types.Event
	rng      *rand.Rand
	log      *zap.Logger
	recorder Recorder
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, name string, s game.Settings, log *zap.Logger, rec Recorder) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		name:     name,
		inbox:    make(chan Msg, 64),
		settings: s,
		clients:  make(map[string]chan types.Event),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log.With(zap.String("room", name)),
		recorder: rec,
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Choice:
				r.handleChoice(msg)

			case Rematch:
				r.handleRematch(msg)

			case Leave:
				r.handleLeave(msg)

			case GetState:
				players := make([]game.Player, len(r.roster))
				for i, p := range r.roster {
					players[i] = *p
				}
				msg.Reply <- View{
					Required:   r.required,
					Started:    r.started,
					NumClients: len(r.clients),
					Players:    players,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	if r.started {
		msg.Reply <- JoinReply{Err: ErrRoundInProgress}
		return
	}
	if r.required != 0 && r.humanCount() >= r.required {
		msg.Reply <- JoinReply{Err: ErrRoomFull}
		return
	}

	if r.required == 0 {
		req := msg.Requested
		if req < 1 || req > r.settings.RosterSize {
			req = r.settings.RosterSize
		}
		r.required = req
	}

	p := game.NewHuman(uuid.NewString(), msg.Name)
	r.roster = append(r.roster, p)
	r.clients[p.ID] = msg.Outbox
	msg.Reply <- JoinReply{ID: p.ID}

	r.log.Info("player joined",
		zap.String("player", msg.Name),
		zap.Int("count", r.humanCount()),
		zap.Int("required", r.required))

	r.broadcastWaiting()

	if r.humanCount() == r.required {
		r.padWithCPUs()
		r.startRound()
	}
}

func (r *Room) handleChoice(msg Choice) {
	if !r.started || !r.settings.ValidChoice(msg.Value) {
		return
	}
	p := r.find(msg.ID)
	if p == nil {
		return
	}
	// Last write wins: choosing again before resolution overwrites.
	p.Choice = msg.Value
	r.resolveRound()
}

func (r *Room) handleRematch(msg Rematch) {
	if r.started {
		return
	}
	p := r.find(msg.ID)
	if p == nil {
		return
	}
	p.Rematch = true

	// Only a full roster can renegotiate; after a disconnect the room has to
	// refill through new admissions instead.
	if len(r.roster) == r.settings.RosterSize && game.RematchReady(r.roster) {
		r.log.Info("rematch agreed")
		r.startRound()
	}
}

func (r *Room) handleLeave(msg Leave) {
	p := r.find(msg.ID)
	if p == nil {
		return
	}
	for i, q := range r.roster {
		if q == p {
			r.roster = append(r.roster[:i], r.roster[i+1:]...)
			break
		}
	}
	if ch, ok := r.clients[p.ID]; ok {
		close(ch)
		delete(r.clients, p.ID)
	}

	// Any departure aborts the round; the survivors wait for refills.
	r.started = false
	r.log.Info("player left", zap.String("player", p.Name))
	r.broadcastWaiting()
}

func (r *Room) padWithCPUs() {
	n := cpuCount(r.roster)
	for len(r.roster) < r.settings.RosterSize {
		n++
		r.roster = append(r.roster, game.NewCPU(uuid.NewString(), n))
	}
}

func (r *Room) startRound() {
	game.ResetRound(r.roster)
	r.started = true

	players := make([]types.StartPlayer, len(r.roster))
	for i, p := range r.roster {
		players[i] = types.StartPlayer{Name: p.Name, IsCPU: p.Agent.CPU()}
	}
	r.log.Info("round started", zap.Int("players", len(players)))
	r.broadcast(types.NewStart(players))
}

func (r *Room) resolveRound() {
	game.FillAutoChoices(r.roster, r.settings, r.rng)
	if !game.AllChosen(r.roster) {
		return // still waiting on a human
	}

	game.ApplyChoices(r.roster, r.settings)

	if game.Finished(r.roster, r.settings.Goal) {
		r.finishRound()
		return
	}

	game.ClearChoices(r.roster)

	players := make([]types.StatePlayer, len(r.roster))
	for i, p := range r.roster {
		players[i] = types.StatePlayer{Name: p.Name, Pos: p.Pos, IsCPU: p.Agent.CPU()}
	}
	r.broadcast(types.NewState(players))
}

func (r *Room) finishRound() {
	r.started = false

	ranking := game.Ranking(r.roster)
	r.log.Info("race finished",
		zap.String("winner", ranking[0].Name),
		zap.Int("pos", ranking[0].Pos))

	if r.recorder != nil {
		go r.record(ranking)
	}

	entries := make([]types.RankEntry, len(ranking))
	for i, e := range ranking {
		entries[i] = types.RankEntry{Rank: e.Rank, Name: e.Name, Pos: e.Pos, IsCPU: e.CPU}
	}
	r.broadcast(types.NewFinish(entries))
}

// record runs off the loop goroutine so storage latency never stalls the
// room. The ranking slice is already a snapshot.
func (r *Room) record(ranking []game.RankEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.recorder.RecordFinish(ctx, r.name, ranking); err != nil {
		r.log.Warn("recording finish failed", zap.Error(err))
	}
}

func (r *Room) broadcastWaiting() {
	r.broadcast(types.NewWaiting(len(r.roster), r.required))
}

// broadcast delivers to every client independently. A client whose outbox is
// full loses its delivery channel; its roster slot is reclaimed when the
// adapter notices and sends Leave.
func (r *Room) broadcast(ev types.Event) {
	for id, ch := range r.clients {
		select {
		case ch <- ev:
		default:
			r.log.Warn("dropping slow client", zap.String("id", id))
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) find(id string) *game.Player {
	for _, p := range r.roster {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) humanCount() int {
	return len(r.roster) - cpuCount(r.roster)
}

func cpuCount(roster []*game.Player) int {
	n := 0
	for _, p := range roster {
		if p.Agent.CPU() {
			n++
		}
	}
	return n
}
