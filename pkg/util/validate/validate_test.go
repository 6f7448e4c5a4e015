package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type sample struct {
	Title          string `validate:"notblank,max=10"`
	ResolutionNote string `validate:"max=5"`
	Email          string `json:"email_address" validate:"omitempty,email"`
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(sample{Title: "ok"}))
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(sample{Title: "   ", ResolutionNote: strings.Repeat("x", 6), Email: "nope"})
	require.True(t, apperrors.IsValidation(err))

	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
	assert.Equal(t, "title is required", fields["title"])
	assert.Equal(t, "resolution_note must be at most 5 characters long", fields["resolution_note"])
	assert.Equal(t, "email_address must be a valid email address", fields["email_address"])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "ticket_id", snakeCase("TicketID"))
	assert.Equal(t, "resolution_note", snakeCase("ResolutionNote"))
	assert.Equal(t, "content", snakeCase("Content"))
}
