package server

import (
	"net/http"

	"incommon/internal/game"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Mode     string         `json:"mode" binding:"required,gamemode"`
	Settings *game.Settings `json:"settings"`
}

type joinRequest struct {
	Name string `json:"name" binding:"required,playername"`
}

type settingsRequest struct {
	Settings game.Settings `json:"settings"`
}

type kickRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

type deckRequest struct {
	Deck []int `json:"deck" binding:"required,min=1,dive,min=0"`
}

type promptRequest struct {
	Word string `json:"word" binding:"required"`
}

type endTimerRequest struct {
	Reason string `json:"reason" binding:"required,endreason"`
}

type rejectRequest struct {
	Category *int   `json:"category" binding:"required,min=0"`
	Answer   string `json:"answer" binding:"required"`
	Rejected bool   `json:"rejected"`
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createRequest
	if !bindJSON(c, &req, bindMessages{
		"Mode": {"required": "mode is required", "gamemode": "unknown game mode"},
	}, "invalid create request") {
		return
	}
	var settings game.Settings
	if req.Settings != nil {
		settings = *req.Settings
	}
	created, err := s.ctl.CreateGame(c.Request.Context(), game.Mode(req.Mode), settings)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Info().Str("game_id", created.Code).Str("mode", string(created.Mode)).Msg("game created")
	c.JSON(http.StatusCreated, gin.H{"code": created.Code, "game": viewGame(created)})
}

func (s *Server) handleJoin(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, bindMessages{
		"Name": {"required": "name is required", "playername": "name must be 1-11 letters, digits or spaces"},
	}, "invalid join request") {
		return
	}
	player, err := s.ctl.JoinGame(c.Request.Context(), code, req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	token, err := s.tokens.Issue(code, player.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Info().Str("game_id", code).Str("player_id", player.ID).Msg("player joined")
	c.JSON(http.StatusOK, gin.H{"player": viewPlayer(player), "token": token})
}

func (s *Server) handleGetState(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	snap, err := s.ctl.State(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewSnapshot(snap))
}

func (s *Server) handleRounds(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	if _, err := s.ctl.State(c.Request.Context(), code); err != nil {
		s.writeError(c, err)
		return
	}
	rounds, err := s.ctl.Rounds(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

func (s *Server) handleSummary(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	summary, err := s.ctl.Summary(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleSettings(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !bindJSON(c, &req, nil, "invalid settings") {
		return
	}
	updated, err := s.ctl.UpdateSettings(c.Request.Context(), code, playerID(c), req.Settings)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": viewGame(updated)})
}

func (s *Server) handleKick(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req kickRequest
	if !bindJSON(c, &req, bindMessages{
		"TargetID": {"required": "target_id is required"},
	}, "invalid kick request") {
		return
	}
	if err := s.ctl.RemovePlayer(c.Request.Context(), code, playerID(c), req.TargetID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStart(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	started, err := s.ctl.StartGame(c.Request.Context(), code, playerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.syncRoundTimer(c.Request.Context(), code)
	c.JSON(http.StatusOK, gin.H{"game": viewGame(started)})
}

func (s *Server) handleDeck(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req deckRequest
	if !bindJSON(c, &req, bindMessages{
		"Deck": {"required": "deck is required", "min": "deck is empty"},
	}, "invalid deck") {
		return
	}
	updated, err := s.ctl.SubmitDeck(c.Request.Context(), code, playerID(c), req.Deck)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.syncRoundTimer(c.Request.Context(), code)
	c.JSON(http.StatusOK, gin.H{"game": viewGame(updated)})
}

func (s *Server) handlePrompt(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req promptRequest
	if !bindJSON(c, &req, bindMessages{
		"Word": {"required": "word is required"},
	}, "invalid prompt") {
		return
	}
	round, err := s.ctl.ChoosePrompt(c.Request.Context(), code, playerID(c), req.Word)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.syncRoundTimer(c.Request.Context(), code)
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleSubmit(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var sub game.Submission
	if !bindJSON(c, &sub, nil, "invalid submission") {
		return
	}
	round, err := s.ctl.SubmitChoice(c.Request.Context(), code, playerID(c), sub)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleEndTimer(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req endTimerRequest
	if !bindJSON(c, &req, bindMessages{
		"Reason": {"required": "reason is required", "endreason": "reason must be timeout or manual"},
	}, "invalid end request") {
		return
	}
	round, err := s.ctl.EndTimer(c.Request.Context(), code, playerID(c), game.EndReason(req.Reason))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cancelRoundTimer(code)
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleStartReveal(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	round, err := s.ctl.StartReveal(c.Request.Context(), code, playerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleAdvanceReveal(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	round, err := s.ctl.AdvanceReveal(c.Request.Context(), code, playerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleReject(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	var req rejectRequest
	if !bindJSON(c, &req, bindMessages{
		"Category": {"required": "category is required", "min": "category is out of range"},
		"Answer":   {"required": "answer is required"},
	}, "invalid rejection") {
		return
	}
	round, err := s.ctl.SetRejected(c.Request.Context(), code, playerID(c), *req.Category, req.Answer, req.Rejected)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (s *Server) handleNextRound(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	next, err := s.ctl.StartNextRound(c.Request.Context(), code, playerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.syncRoundTimer(c.Request.Context(), code)
	c.JSON(http.StatusOK, gin.H{"game": viewGame(next)})
}

func (s *Server) handleReset(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	reset, err := s.ctl.ResetGame(c.Request.Context(), code, playerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cancelRoundTimer(code)
	c.JSON(http.StatusOK, gin.H{"game": viewGame(reset)})
}
