package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Results renders the leaderboard of a game.
func Results(view ResultsView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "Results "+view.Code)
		var b strings.Builder
		b.WriteString(`      <header class="hero">
        <span class="tag">` + esc(modeLabel(view.Mode)) + `</span>
        <h1>Game ` + esc(view.Code) + `</h1>
`)
		if view.Finished {
			b.WriteString("        <p>Final results after " + itoa(view.Rounds) + " rounds.</p>\n")
		} else {
			b.WriteString("        <p>Standings after " + itoa(view.Rounds) + " rounds.</p>\n")
		}
		b.WriteString("      </header>\n")

		b.WriteString(`      <section class="panel">
        <table>
          <tr><th>#</th><th>Player</th><th>Score</th><th>Rounds</th></tr>
`)
		for _, row := range view.Standings {
			b.WriteString("          <tr><td>" + itoa(row.Rank) + "</td><td>" + esc(row.Name) + "</td><td>" +
				itoa(row.Score) + "</td><td>" + esc(joinInts(row.RoundScores)) + "</td></tr>\n")
		}
		b.WriteString("        </table>\n      </section>\n")

		if len(view.Awards) > 0 {
			b.WriteString("      <section class=\"panel\">\n        <h2>Awards</h2>\n        <ul>\n")
			for _, award := range view.Awards {
				line := esc(award.Title) + ": <strong>" + esc(award.Name) + "</strong>"
				if award.Detail != "" {
					line += " (" + esc(award.Detail) + ")"
				}
				b.WriteString("          <li>" + line + "</li>\n")
			}
			b.WriteString("        </ul>\n      </section>\n")
		}

		writePairs(&b, "Closest scores", view.ClosestScores)
		writePairs(&b, "Most in common", view.Overlaps)

		if len(view.LongestWords) > 0 {
			b.WriteString("      <section class=\"panel\">\n        <h2>Longest words</h2>\n        <p>" +
				esc(strings.Join(view.LongestWords, ", ")) + "</p>\n      </section>\n")
		}
		if len(view.Groups) > 0 {
			b.WriteString("      <section class=\"panel\">\n        <h2>Groups</h2>\n        <ul>\n")
			for _, group := range view.Groups {
				b.WriteString("          <li>" + esc(strings.Join(group, ", ")) + "</li>\n")
			}
			b.WriteString("        </ul>\n      </section>\n")
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		writeFoot(w)
		return nil
	})
}

func writePairs(b *strings.Builder, title string, pairs []ResultPair) {
	if len(pairs) == 0 {
		return
	}
	b.WriteString("      <section class=\"panel\">\n        <h2>" + esc(title) + "</h2>\n        <ul>\n")
	for _, pair := range pairs {
		b.WriteString("          <li>" + esc(pair.A) + " &amp; " + esc(pair.B) + " (" + itoa(pair.Value) + ")</li>\n")
	}
	b.WriteString("        </ul>\n      </section>\n")
}
