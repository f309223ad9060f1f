package web

import (
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func esc(value string) string {
	return templ.EscapeString(value)
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, itoa(value))
	}
	return strings.Join(parts, " · ")
}

func modeLabel(mode string) string {
	switch mode {
	case "card_match":
		return "Incommon"
	case "word_find":
		return "Out of Words, Words"
	case "scattergories":
		return "Scattergories"
	}
	return mode
}

func writeHead(w io.Writer, title string) {
	_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+esc(title)+`</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #f7f3ec; color: #1d1d1d; }
      .shell { max-width: 720px; margin: 0 auto; padding: 24px; }
      .panel { background: #fff; border-radius: 12px; padding: 16px 20px; margin-bottom: 16px; }
      table { width: 100%; border-collapse: collapse; }
      td, th { text-align: left; padding: 6px 4px; border-bottom: 1px solid #eee; }
      .tag { text-transform: uppercase; letter-spacing: 0.1em; font-size: 12px; color: #8a6d3b; }
    </style>
  </head>
  <body>
    <main class="shell">
`)
}

func writeFoot(w io.Writer) {
	_, _ = io.WriteString(w, `    </main>
  </body>
</html>
`)
}
