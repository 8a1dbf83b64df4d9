package app

import (
	"fmt"
	"sort"
	"strings"

	"classroom-game-service/internal/domain"
	"github.com/google/uuid"
)

const maxNicknameLength = 24

// JoinResult is the reply to an accepted game:join.
type JoinResult struct {
	PlayerID    string                `json:"playerId"`
	Reconnected bool                  `json:"reconnected"`
	Phase       domain.Phase          `json:"phase"`
	Mode        domain.Mode           `json:"mode"`
	Players     []domain.PublicPlayer `json:"players"`
	// Attachment identifies this attachment for Detach.
	Attachment  uint64                `json:"-"`
}

// Join admits a new player or re-attaches a known player id.
func (r *Room) Join(req domain.JoinRequest) (JoinResult, error) {
	var res JoinResult
	err := r.do(func() error {
		if p, ok := r.players[req.PlayerID]; ok && req.PlayerID != "" {
			return r.reattach(p, &res)
		}
		p, err := r.admit(req)
		if err != nil {
			return err
		}
		res = JoinResult{PlayerID: p.ID, Phase: r.phase, Mode: r.mode, Players: r.publicPlayers(), Attachment: r.attach(p.ID)}
		return nil
	})
	return res, err
}

func (r *Room) reattach(p *domain.Player, res *JoinResult) error {
	wasConnected := p.Connected
	p.Connected = true
	r.idleTicks = 0
	if !wasConnected {
		r.broadcast(domain.EventPlayerReconnected, playerPayload{Player: p.Public()})
		r.log.Debug().Str("player", p.ID).Msg("player reconnected")
	}
	*res = JoinResult{
		PlayerID:    p.ID,
		Reconnected: true,
		Phase:       r.phase,
		Mode:        r.mode,
		Players:     r.publicPlayers(),
		Attachment:  r.attach(p.ID),
	}
	return nil
}

func (r *Room) attach(playerID string) uint64 {
	r.attachSeq++
	r.attachments[playerID] = r.attachSeq
	return r.attachSeq
}

func (r *Room) admit(req domain.JoinRequest) (*domain.Player, error) {
	switch r.phase {
	case domain.PhaseFinished:
		return nil, domain.ErrGameFinished
	case domain.PhaseLobby:
	default:
		if !r.cfg.AllowLateJoin {
			return nil, domain.ErrLateJoinDisabled
		}
	}
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" || len([]rune(nickname)) > maxNicknameLength {
		return nil, domain.ErrInvalidNickname
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return nil, domain.ErrRoomFull
	}
	avatar := strings.TrimSpace(req.Avatar)
	for _, other := range r.players {
		if strings.EqualFold(other.Nickname, nickname) {
			return nil, domain.ErrNicknameTaken
		}
		if avatar != "" && other.Avatar == avatar {
			return nil, domain.ErrAvatarTaken
		}
	}

	id := req.PlayerID
	if id == "" {
		id = uuid.NewString()
	}
	p := &domain.Player{
		ID:        id,
		Nickname:  nickname,
		Avatar:    avatar,
		JoinOrder: r.joinSeq,
		JoinedAt:  r.now(),
		Connected: true,
		Answers:   make(map[string]domain.AnswerRecord),
	}
	r.joinSeq++
	r.players[id] = p
	r.idleTicks = 0
	if r.game != nil {
		r.game.AddPlayer(p)
	}
	r.broadcast(domain.EventPlayerJoined, playerPayload{Player: p.Public(), Count: len(r.players)})
	r.log.Debug().Str("player", id).Str("nickname", nickname).Msg("player joined")
	return p, nil
}

// Ready toggles a player's ready flag in the lobby.
func (r *Room) Ready(playerID string, ready bool) error {
	return r.do(func() error {
		p, ok := r.players[playerID]
		if !ok {
			return domain.ErrPlayerNotFound
		}
		if r.phase != domain.PhaseLobby {
			return fmt.Errorf("%w: ready is only accepted in the lobby", domain.ErrWrongPhase)
		}
		p.Ready = ready
		r.broadcast(domain.EventPlayerReady, playerPayload{Player: p.Public()})
		return nil
	})
}

// Leave removes a player for good. Their record does not survive.
func (r *Room) Leave(playerID string) error {
	return r.do(func() error {
		p, ok := r.players[playerID]
		if !ok {
			return domain.ErrPlayerNotFound
		}
		p.Connected = false
		if r.game != nil {
			r.game.RemovePlayer(playerID)
		}
		delete(r.players, playerID)
		delete(r.attachments, playerID)
		r.broadcast(domain.EventPlayerLeft, playerPayload{Player: p.Public(), Count: len(r.players)})
		r.afterRosterChange()
		return nil
	})
}

// Detach marks a player unavailable if attachment is still their latest one;
// their score and position stay. A connection replaced by a reconnect
// detaches as a no-op.
func (r *Room) Detach(playerID string, attachment uint64) error {
	return r.do(func() error {
		p, ok := r.players[playerID]
		if !ok {
			return domain.ErrPlayerNotFound
		}
		if r.attachments[playerID] != attachment || !p.Connected {
			return nil
		}
		p.Connected = false
		r.broadcast(domain.EventPlayerDisconnected, playerPayload{Player: p.Public()})
		if r.game != nil {
			r.game.PlayerDisconnected(playerID)
		}
		r.afterRosterChange()
		return nil
	})
}

// afterRosterChange lets the scheduler react to one fewer connected player.
func (r *Room) afterRosterChange() {
	switch r.phase {
	case domain.PhaseQuestion:
		if r.allAnswered() {
			r.grade()
		}
	case domain.PhasePlaying:
		r.afterBoardAction()
	}
}

func sortByJoin(ps []*domain.Player) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].JoinOrder < ps[j].JoinOrder
	})
}
