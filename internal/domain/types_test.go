package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Page: 1, PerPage: 10}},
		{PageRequest{Page: -3, PerPage: -1}, PageRequest{Page: 1, PerPage: 1}},
		{PageRequest{Page: 4, PerPage: 500}, PageRequest{Page: 4, PerPage: 100}},
		{PageRequest{Page: 2, PerPage: 25}, PageRequest{Page: 2, PerPage: 25}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Normalize())
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(PageRequest{Page: 2, PerPage: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	last := NewPagination(PageRequest{Page: 3, PerPage: 10}, 25)
	assert.False(t, last.HasNext)

	empty := NewPagination(PageRequest{Page: 1, PerPage: 10}, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestValidationErrorMessage(t *testing.T) {
	err := Invalid("customers", "Customer %d name is required", 2)
	assert.Equal(t, "Customer 2 name is required", err.Error())
	assert.True(t, IsValidation(err))
	assert.Equal(t, "invalid email", ValidationError{Field: "email"}.Error())
}
