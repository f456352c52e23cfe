package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	mux.HandleFunc("POST /api/game", app.createGame)
	mux.HandleFunc("GET /api/game/{gameID}", app.getGame)
	mux.HandleFunc("POST /api/game/{gameID}/ask", app.askQuestion)
	mux.HandleFunc("POST /api/game/{gameID}/ready-to-guess", app.readyToGuess)
	mux.HandleFunc("POST /api/game/{gameID}/guess", app.submitGuess)
	mux.HandleFunc("PATCH /api/game/{gameID}/language", app.setLanguage)
	mux.HandleFunc("POST /api/game/{gameID}/end", app.endGame)

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return standard.Then(mux)
}
