package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "Incommon")
		_, _ = io.WriteString(w, `      <header class="hero">
        <span class="tag">Incommon</span>
        <h1>Find what you have in common.</h1>
        <p>Start a game on the big screen and join from your phone with the code.</p>
      </header>

      <section class="panel">
        <div>
          <h2>Create a game</h2>
          <p>Pick a game and share the join code with your players.</p>
        </div>
        <form id="createForm">
          <select name="mode">
            <option value="card_match">Incommon</option>
            <option value="word_find">Out of Words, Words</option>
            <option value="scattergories">Scattergories</option>
          </select>
          <button type="submit" class="primary">Create game</button>
        </form>
        <div id="createResult" class="result"></div>
        <img id="joinQR" alt="" hidden/>
      </section>

      <section class="panel">
        <div>
          <h2>Join a game</h2>
          <p>Enter the four letter code and your name.</p>
        </div>
        <form id="joinForm" class="join-form">
          <input name="code" placeholder="Join code" autocomplete="off" maxlength="4" required/>
          <input name="name" placeholder="Display name" autocomplete="name" maxlength="11" required/>
          <button type="submit" class="secondary">Join game</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>

    <script>
      const createForm = document.getElementById("createForm");
      const createResult = document.getElementById("createResult");
      const joinQR = document.getElementById("joinQR");
      const joinForm = document.getElementById("joinForm");
      const joinResult = document.getElementById("joinResult");
      const params = new URLSearchParams(window.location.search);
      if (params.get("code")) {
        joinForm.elements.code.value = params.get("code");
      }

      createForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        createResult.textContent = "Creating game...";
        const res = await fetch("/api/games", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ mode: createForm.elements.mode.value })
        });
        const data = await res.json();
        if (!res.ok) {
          createResult.textContent = data.error || "Failed to create game.";
          return;
        }
        createResult.textContent = "Game created. Join code: " + data.code;
        joinQR.src = "/api/games/" + data.code + "/qr";
        joinQR.hidden = false;
      });

      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        joinResult.textContent = "Joining game...";
        const code = joinForm.elements.code.value.trim().toUpperCase();
        const name = joinForm.elements.name.value.trim();
        const res = await fetch("/api/games/" + encodeURIComponent(code) + "/join", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ name })
        });
        const data = await res.json();
        if (!res.ok) {
          joinResult.textContent = data.error || "Failed to join game.";
          return;
        }
        sessionStorage.setItem("incommon:" + code, data.token);
        joinResult.textContent = "Joined game " + code + " as " + data.player.name + ".";
      });
    </script>
`)
		writeFoot(w)
		return nil
	})
}
