package util

import (
	"classroom_backend/internal/model"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			return model.DifficultyLevel(fl.Field().String()).Valid()
		})
	})
	return err
}
