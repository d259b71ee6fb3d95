package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "fullname.firstname", fieldPath("RegisterUserRequest.fullname.firstname"))
	assert.Equal(t, "email", fieldPath("email"))
}
