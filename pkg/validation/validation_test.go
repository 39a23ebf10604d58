package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type link struct {
	Label string `json:"label" validate:"notblank"`
	URL   string `json:"url" validate:"required,httpurl"`
}

type input struct {
	Title    string `json:"title" validate:"notblank,max=20"`
	Status   string `json:"status" validate:"omitempty,oneof=todo doing"`
	Progress int    `json:"progress" validate:"min=0,max=100"`
	Links    []link `json:"links" validate:"dive"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     input
		fields map[string]string
	}{
		{
			name: "valid",
			in:   input{Title: "Plan", Status: "doing", Progress: 40, Links: []link{{Label: "Drive", URL: "https://drive.example"}}},
		},
		{
			name:   "blank title",
			in:     input{Title: "   "},
			fields: map[string]string{"title": "this field cannot be blank"},
		},
		{
			name:   "bad enum",
			in:     input{Title: "x", Status: "later"},
			fields: map[string]string{"status": "status must be one of [todo doing]"},
		},
		{
			name: "nested",
			in:   input{Title: "x", Progress: 101, Links: []link{{Label: "", URL: "ftp://x"}}},
			fields: map[string]string{
				"progress":       "progress must be 100 or less",
				"links[0].label": "this field cannot be blank",
				"links[0].url":   "must be an http(s) URL",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			got := map[string]string{}
			for _, f := range verr.Fields {
				got[f.Field] = f.Error
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "invalid input: title: required", NewError("title", "required").Error())
	assert.Equal(t, "invalid input", (&Error{}).Error())
}
