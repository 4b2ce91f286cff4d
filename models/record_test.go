package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_PresentFields(t *testing.T) {
	record := Record{Fields: map[string]*string{
		FieldPIN:   StringPtr("654321"),
		FieldNotes: nil,
	}}

	got := record.PresentFields([]string{FieldUsername, FieldPassword, FieldPIN, FieldNotes})

	assert.Equal(t, []string{FieldPIN, FieldNotes}, got)
	assert.Empty(t, Record{}.PresentFields([]string{FieldPassword}))
}
