package main

import (
	"net/http"

	"github.com/ahietala/whodunit/internal/game"
	"github.com/ahietala/whodunit/internal/mystery"
)

type createGameRequest struct {
	Language string `json:"language"`
}

func (app *application) createGame(w http.ResponseWriter, r *http.Request) {
	request := createGameRequest{Language: string(mystery.LanguageJA)}
	if r.ContentLength != 0 && !app.decodeJSON(w, r, &request) {
		return
	}
	lang, err := mystery.ParseLanguage(request.Language)
	if err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, &game.Error{
			Code:    game.CodeValidationFailed,
			Message: "language must be \"ja\" or \"en\"",
		})
		return
	}

	view, err := app.engine.Create(r.Context(), lang)
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, view)
}

func (app *application) getGame(w http.ResponseWriter, r *http.Request) {
	view, err := app.engine.Get(r.Context(), r.PathValue("gameID"))
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

type askRequest struct {
	Question string `json:"question"`
	Target   string `json:"target,omitempty"`
}

func (app *application) askQuestion(w http.ResponseWriter, r *http.Request) {
	var request askRequest
	if !app.decodeJSON(w, r, &request) {
		return
	}

	view, err := app.engine.Ask(r.Context(), r.PathValue("gameID"), request.Question, request.Target)
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

func (app *application) readyToGuess(w http.ResponseWriter, r *http.Request) {
	view, err := app.engine.ReadyToGuess(r.Context(), r.PathValue("gameID"))
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

func (app *application) submitGuess(w http.ResponseWriter, r *http.Request) {
	var guess mystery.Guess
	if !app.decodeJSON(w, r, &guess) {
		return
	}

	view, err := app.engine.SubmitGuess(r.Context(), r.PathValue("gameID"), guess)
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (app *application) setLanguage(w http.ResponseWriter, r *http.Request) {
	var request setLanguageRequest
	if !app.decodeJSON(w, r, &request) {
		return
	}
	lang, err := mystery.ParseLanguage(request.Language)
	if err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, &game.Error{
			Code:    game.CodeValidationFailed,
			Message: "language must be \"ja\" or \"en\"",
		})
		return
	}

	view, err := app.engine.SetLanguage(r.Context(), r.PathValue("gameID"), lang)
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

func (app *application) endGame(w http.ResponseWriter, r *http.Request) {
	view, err := app.engine.End(r.Context(), r.PathValue("gameID"))
	if err != nil {
		app.writeGameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}
