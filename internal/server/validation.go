package server

import (
	"sync"

	"incommon/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("playername", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("gamecode", func(fl validator.FieldLevel) bool {
			return game.ValidCode(game.NormalizeCode(fl.Field().String()))
		})
		_ = engine.RegisterValidation("gamemode", func(fl validator.FieldLevel) bool {
			return game.Mode(fl.Field().String()).Valid()
		})
		_ = engine.RegisterValidation("endreason", func(fl validator.FieldLevel) bool {
			switch game.EndReason(fl.Field().String()) {
			case game.EndTimeout, game.EndManual:
				return true
			}
			return false
		})
	})
}
