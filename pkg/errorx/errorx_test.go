package errorx_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

const testCode = 190001

func init() {
	errorx.MustRegister(errorx.NewCoder(testCode, http.StatusNotFound, "thing not found", ""))
}

func TestWithCode(t *testing.T) {
	err := errorx.WithCode(testCode, "thing %q missing", "abc")
	require.Error(t, err)
	assert.Equal(t, `thing "abc" missing`, err.Error())
	assert.Equal(t, testCode, errorx.FromError(err).Code())
	assert.Equal(t, http.StatusNotFound, errorx.FromError(err).HTTPStatus())
}

func TestWrapC(t *testing.T) {
	cause := errors.New("boltdb: key not found")
	err := errorx.WrapC(cause, testCode, "load student %q", "s-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), cause.Error())
	assert.Equal(t, testCode, errorx.FromError(err).Code())
}

func TestWrapCNil(t *testing.T) {
	assert.NoError(t, errorx.WrapC(nil, testCode, "noop"))
}

func TestFromErrorUnknown(t *testing.T) {
	c := errorx.FromError(errors.New("plain"))
	assert.Equal(t, http.StatusInternalServerError, c.HTTPStatus())
}

func TestRegisterConflict(t *testing.T) {
	err := errorx.Register(errorx.NewCoder(testCode, http.StatusBadRequest, "different message", ""))
	assert.Error(t, err)
}
