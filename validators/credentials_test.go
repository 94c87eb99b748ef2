package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("buyer@snack.co.kr"))
	assert.True(t, ValidateEmail(" admin+ops@company.com "))
	assert.False(t, ValidateEmail("buyer@"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("snack1234"))
	assert.True(t, ValidatePassword("1234abcd"))
	assert.False(t, ValidatePassword("short1"))
	assert.False(t, ValidatePassword("onlyletters"))
	assert.False(t, ValidatePassword("12345678"))
}

func TestValidateLogin(t *testing.T) {
	require.NoError(t, ValidateLogin("buyer@snack.co.kr", "whatever"))

	err := ValidateLogin("bad", "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "email", verr.Fields[0].Field)
	assert.Equal(t, "password", verr.Fields[1].Field)
}

func TestValidateRegistration(t *testing.T) {
	require.NoError(t, ValidateRegistration("new@snack.co.kr", "snack1234", "snack1234", "김코드"))

	err := ValidateRegistration("new@snack.co.kr", "snack1234", "snack9999", "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := []string{}
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"passwordConfirm", "nickname"}, fields)
	assert.Contains(t, err.Error(), "validation failed")
}
