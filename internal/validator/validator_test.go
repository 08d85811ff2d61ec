package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type candidateInput struct {
	Username string `json:"username" binding:"required,min=3,username"`
	Email    string `json:"email" binding:"required,email"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     candidateInput
		fields []string
	}{
		{name: "valid", in: candidateInput{Username: "rafi.h_24", Email: "rafi@example.com"}},
		{name: "bad username", in: candidateInput{Username: "rafi h", Email: "rafi@example.com"}, fields: []string{"username"}},
		{name: "both missing", in: candidateInput{}, fields: []string{"username", "email"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Struct(tc.in)
			if len(tc.fields) == 0 {
				assert.Nil(t, got)
				return
			}
			assert.Len(t, got, len(tc.fields))
			for _, f := range tc.fields {
				assert.NotEmpty(t, got[f], f)
			}
		})
	}
}

func TestTranslateErrors_NonValidation(t *testing.T) {
	got := TranslateErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"detail": "unexpected EOF"}, got)
}
