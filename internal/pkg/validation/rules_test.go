package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	SessionType string `json:"sessionType" validate:"required,session_type"`
	Status      string `json:"status" validate:"omitempty,session_status"`
	RoomType    string `json:"roomType" validate:"omitempty,room_type"`
	Approval    string `json:"approval" validate:"omitempty,approval_status"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestEnumRules(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(sample{SessionType: "exam", Status: "cancelled", RoomType: "lab", Approval: "approved"}))

	err := v.Struct(sample{SessionType: "examen"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "sessionType", verrs[0].Field())
	assert.Equal(t, "session_type", verrs[0].Tag())
}

func TestApprovalRuleRejectsPending(t *testing.T) {
	v := newValidator(t)
	assert.Error(t, v.Struct(sample{SessionType: "lecture", Approval: "pending"}))
}

func TestRegisterRulesOnGinEngine(t *testing.T) {
	require.NoError(t, RegisterRules())
	require.NoError(t, RegisterRules())
}
