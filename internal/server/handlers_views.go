package server

import (
	"net/http"

	"incommon/internal/game"
	"incommon/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

var awardTitles = map[string]string{
	game.AwardWordWizard:    "Word wizard",
	game.AwardBigWordEnergy: "Big word energy",
	game.AwardUniqueMind:    "Unique mind",
	game.AwardHotStreak:     "Hot streak",
}

func (s *Server) handleHome(c *gin.Context) {
	templ.Handler(web.Home()).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleResultsView(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	snap, err := s.ctl.State(c.Request.Context(), code)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			c.Redirect(http.StatusFound, "/")
			return
		}
		s.writeError(c, err)
		return
	}
	summary, err := s.ctl.Summary(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	view := resultsView(summary)
	view.Finished = snap.Game.Phase == game.PhaseEnded
	templ.Handler(web.Results(view)).ServeHTTP(c.Writer, c.Request)
}

func resultsView(summary game.Summary) web.ResultsView {
	view := web.ResultsView{
		Code:   summary.Code,
		Mode:   string(summary.Mode),
		Rounds: summary.Rounds,
	}
	for _, standing := range summary.Standings {
		view.Standings = append(view.Standings, web.ResultRow{
			Rank:        standing.Rank,
			Name:        standing.Name,
			Score:       standing.Score,
			RoundScores: standing.RoundScores,
		})
	}
	for _, award := range summary.Awards {
		title := awardTitles[award.Key]
		if title == "" {
			title = award.Key
		}
		view.Awards = append(view.Awards, web.ResultAward{
			Title:  title,
			Name:   award.Name,
			Value:  award.Value,
			Detail: award.Detail,
		})
	}
	view.ClosestScores = resultPairs(summary.ClosestScores)
	view.Overlaps = resultPairs(summary.Overlaps)
	for _, word := range summary.LongestWords {
		view.LongestWords = append(view.LongestWords, word.Word)
	}
	if summary.Cards != nil {
		view.Groups = summary.Cards.Groups
	}
	return view
}

func resultPairs(pairs []game.PlayerPair) []web.ResultPair {
	out := make([]web.ResultPair, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, web.ResultPair{A: pair.A, B: pair.B, Value: pair.Value})
	}
	return out
}

// handleJoinQR serves a PNG QR code pointing players at the join form.
func (s *Server) handleJoinQR(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	if _, err := s.ctl.State(c.Request.Context(), code); err != nil {
		s.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(joinURL(c.Request, code), qrcode.Medium, qrSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func joinURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + "/?code=" + code
}
