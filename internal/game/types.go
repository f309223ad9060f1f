package game

import "sort"

type Mode string

const (
	ModeCardMatch     Mode = "card_match"
	ModeWordFind      Mode = "word_find"
	ModeScattergories Mode = "scattergories"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCardMatch, ModeWordFind, ModeScattergories:
		return true
	}
	return false
}

type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseBuildDeck Phase = "build_deck"
	PhaseStarted   Phase = "started"
	PhaseEnded     Phase = "ended"
)

// RoundState is the lifecycle position of a round, derived from its document.
type RoundState string

const (
	StateChoosingPrompt RoundState = "choosing_prompt"
	StateSubmitting     RoundState = "submitting"
	StateRevealPending  RoundState = "reveal_pending"
	StateRevealing      RoundState = "revealing"
	StateRevealComplete RoundState = "reveal_complete"
	StateGameEnded      RoundState = "game_ended"
)

type EndReason string

const (
	EndTimeout EndReason = "timeout"
	EndManual  EndReason = "manual"
)

const (
	DeckCustom          = "custom"
	WordSelectionCustom = "custom"
	WordSelectionList   = "wordList"
)

type Settings struct {
	Rounds        int    `json:"rounds"`
	DeckType      string `json:"deckType,omitempty"`
	WordSelection string `json:"wordSelection,omitempty"`
	RoundSeconds  int    `json:"roundSeconds,omitempty"`
	Untimed       bool   `json:"untimed,omitempty"`
	MinWordLength int    `json:"minWordLength,omitempty"`
	Language      string `json:"language,omitempty"`
}

type Game struct {
	Code         string   `json:"-"`
	Version      int64    `json:"-"`
	Mode         Mode     `json:"mode"`
	Phase        Phase    `json:"phase"`
	CurrentRound int      `json:"currentRound"`
	TotalRounds  int      `json:"totalRounds"`
	NumCards     int      `json:"numCards"`
	DeckSize     int      `json:"deckSize"`
	Deck         []int    `json:"deck"`
	Categories   []string `json:"categories"`
	UsedWords    []string `json:"usedWords"`
	Settings     Settings `json:"settings"`
	CreatedAt    int64    `json:"createdAt"`
	EndedAt      int64    `json:"endedAt,omitempty"`
}

type Player struct {
	ID               string                    `json:"-"`
	Version          int64                     `json:"-"`
	Name             string                    `json:"name"`
	JoinedAt         int64                     `json:"joinedAt"`
	GameScore        int                       `json:"gameScore"`
	RoundScores      map[string]int            `json:"roundScores"`
	Submitted        bool                      `json:"submitted"`
	Cards            []int                     `json:"cards"`
	Words            []string                  `json:"words"`
	Answers          map[string]string         `json:"answers"`
	Connections      map[string]int            `json:"connections"`
	RoundConnections map[string]map[string]int `json:"roundConnections"`
}

// Submission is one player's round entry. Only the field for the game's mode is used.
type Submission struct {
	Name    string            `json:"name,omitempty"`
	Cards   []int             `json:"cards,omitempty"`
	Words   []string          `json:"words,omitempty"`
	Answers map[string]string `json:"answers,omitempty"`
}

type RevealCursor struct {
	PlayerIndex   int    `json:"playerIndex"`
	ItemIndex     int    `json:"itemIndex"`
	CategoryIndex int    `json:"categoryIndex"`
	CurrentItem   string `json:"currentItem"`
	CurrentPlayer string `json:"currentPlayer"`
}

type RevealedItem struct {
	Step       int            `json:"step"`
	Points     int            `json:"points"`
	RevealedBy string         `json:"revealedBy"`
	Awards     map[string]int `json:"awards"`
}

type Round struct {
	ID                  string                         `json:"-"`
	Version             int64                          `json:"-"`
	Number              int                            `json:"number"`
	ChooserID           string                         `json:"chooserId"`
	Options             []string                       `json:"options"`
	Prompt              string                         `json:"prompt"`
	Letter              string                         `json:"letter,omitempty"`
	Categories          []string                       `json:"categories"`
	StartedAt           int64                          `json:"startedAt"`
	Deadline            int64                          `json:"deadline"`
	TimerEnded          bool                           `json:"timerEnded"`
	EndReason           EndReason                      `json:"endReason,omitempty"`
	AllSubmitted        bool                           `json:"allSubmitted"`
	ScoresCalculated    bool                           `json:"scoresCalculated"`
	PlayerOrder         []string                       `json:"playerOrder"`
	Submissions         map[string]Submission          `json:"submissions"`
	AllAnswers          map[string]map[string][]string `json:"allAnswers"`
	Rejected            map[string]map[string]bool     `json:"rejected"`
	Connections         map[string]map[string]int      `json:"connections"`
	ConnectionThreshold int                            `json:"connectionThreshold"`
	TopCards            []int                          `json:"topCards"`
	RevealStarted       bool                           `json:"revealStarted"`
	RevealOrder         []string                       `json:"revealOrder"`
	Cursor              RevealCursor                   `json:"cursor"`
	RevealedItems       map[string]RevealedItem        `json:"revealedItems"`
	Scores              map[string]int                 `json:"scores"`
	LastRevealAt        int64                          `json:"lastRevealAt"`
	RevealComplete      bool                           `json:"revealComplete"`
	ScoresFolded        bool                           `json:"scoresFolded"`
}

// PromptChosen reports whether the round has left ChoosingPrompt.
func (r Round) PromptChosen() bool {
	return r.Prompt != ""
}

// RoundStateOf derives the lifecycle state of round within game.
func RoundStateOf(game Game, round Round) RoundState {
	if game.Phase == PhaseEnded {
		return StateGameEnded
	}
	switch {
	case round.RevealComplete:
		return StateRevealComplete
	case round.RevealStarted:
		return StateRevealing
	case !round.PromptChosen():
		return StateChoosingPrompt
	case round.TimerEnded:
		return StateRevealPending
	case game.Mode == ModeCardMatch && round.AllSubmitted:
		return StateRevealPending
	}
	return StateSubmitting
}

// Snapshot is everything a client needs to render a game.
type Snapshot struct {
	Game          Game       `json:"game"`
	Players       []Player   `json:"players"`
	Round         *Round     `json:"round,omitempty"`
	State         RoundState `json:"state,omitempty"`
	FirstPlayerID string     `json:"firstPlayerId,omitempty"`
}

// sortByJoin orders players by join time, then id.
func sortByJoin(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].JoinedAt != players[j].JoinedAt {
			return players[i].JoinedAt < players[j].JoinedAt
		}
		return players[i].ID < players[j].ID
	})
}

// firstPlayer returns the earliest joined player.
func firstPlayer(players []Player) (Player, bool) {
	if len(players) == 0 {
		return Player{}, false
	}
	ordered := append([]Player(nil), players...)
	sortByJoin(ordered)
	return ordered[0], true
}

func findPlayer(players []Player, id string) (Player, bool) {
	for _, player := range players {
		if player.ID == id {
			return player, true
		}
	}
	return Player{}, false
}
