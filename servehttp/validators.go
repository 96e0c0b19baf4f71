package servehttp

import (
	"formflow/domain/flow"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the custom binding rules, "identifier" accepts lowercase letters, digits and underscores
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logrus.Warn("binding validator engine is not go-playground validator, custom rules are not registered")
			return
		}
		if err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return flow.IsIdentifier(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	})
}
