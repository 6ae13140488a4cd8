package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createPayload struct {
	Title    string `json:"title" validate:"required,notblank,max=20"`
	Category string `json:"category" validate:"required,oneof=construction furniture services"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

type updatePayload struct {
	Title   *string `json:"title" validate:"omitnil,notblank,max=20"`
	Upvotes *int    `json:"upvotes" validate:"omitempty,min=0"`
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)

	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestDecode_Valid(t *testing.T) {
	var p createPayload
	err := Decode(strings.NewReader(`{"title":"Roof","category":"construction"}`), &p)

	require.NoError(t, err)
	assert.Equal(t, "Roof", p.Title)
}

func TestDecode_ReportsEveryField(t *testing.T) {
	var p createPayload
	err := Decode(strings.NewReader(`{"title":"   ","category":"gardening","email":"nope"}`), &p)

	got := fields(t, err)
	assert.Equal(t, "must not be blank", got["title"])
	assert.Contains(t, got["category"], "must be one of")
	assert.Equal(t, "must be a valid email address", got["email"])
}

func TestDecode_MissingRequired(t *testing.T) {
	var p createPayload
	got := fields(t, Decode(strings.NewReader(`{}`), &p))

	assert.Equal(t, "is required", got["title"])
	assert.Equal(t, "is required", got["category"])
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var p createPayload
	got := fields(t, Decode(strings.NewReader(`{"title":"T","category":"services","upvotes":10}`), &p))

	assert.Equal(t, "unknown field", got["upvotes"])
}

func TestDecode_WrongType(t *testing.T) {
	var p createPayload
	got := fields(t, Decode(strings.NewReader(`{"title":5,"category":"services"}`), &p))

	assert.Contains(t, got["title"], "must be of type")
}

func TestDecode_EmptyAndMalformedBody(t *testing.T) {
	var p createPayload

	assert.Equal(t, "request body is required", fields(t, Decode(strings.NewReader(""), &p))["body"])
	assert.Equal(t, "malformed JSON", fields(t, Decode(strings.NewReader(`{"title":`), &p))["body"])
	assert.Equal(t, "must contain a single JSON object",
		fields(t, Decode(strings.NewReader(`{"title":"a","category":"services"}{}`), &p))["body"])
}

func TestDecode_PointerFields(t *testing.T) {
	var p updatePayload
	got := fields(t, Decode(strings.NewReader(`{"upvotes":-1}`), &p))
	assert.Equal(t, "must be at least 0", got["upvotes"])

	p = updatePayload{}
	require.NoError(t, Decode(strings.NewReader(`{"upvotes":0}`), &p))
	require.NotNil(t, p.Upvotes)
	assert.Equal(t, 0, *p.Upvotes)
}

func TestRequireAny(t *testing.T) {
	got := fields(t, RequireAny(&updatePayload{}))
	assert.Equal(t, "at least one field must be provided", got["body"])

	title := "x"
	assert.NoError(t, RequireAny(&updatePayload{Title: &title}))
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: []FieldError{{Field: "title", Reason: "is required"}}}
	assert.Equal(t, "validation failed: title: is required", err.Error())
}
