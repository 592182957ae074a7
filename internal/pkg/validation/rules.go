package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/unitime/internal/app/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// enumRules maps custom binding tags to their accepted values.
var enumRules = map[string]func(string) bool{
	"session_type":   func(v string) bool { return models.SessionType(v).IsValid() },
	"session_status": func(v string) bool { return models.SessionStatus(v).IsValid() },
	"role_type":      func(v string) bool { return models.RoleType(v).IsValid() },
	"room_type": func(v string) bool {
		switch models.RoomType(v) {
		case models.RoomTypeLectureHall, models.RoomTypeClassroom, models.RoomTypeLab, models.RoomTypeComputerLab:
			return true
		}
		return false
	},
	"approval_status": func(v string) bool {
		return v == string(models.ApprovalApproved) || v == string(models.ApprovalRejected)
	},
}

// RegisterRules installs the custom tags on gin's validator engine and makes
// field errors report JSON names. It is safe to call more than once.
func RegisterRules() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = Register(v)
	})
	return registerErr
}

// Register installs the rules on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonTagName)

	for tag, accept := range enumRules {
		accept := accept
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return accept(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func jsonTagName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}
