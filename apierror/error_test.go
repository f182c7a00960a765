package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/pantrymap/go-pantrymap/apierror"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := apierror.New(errors.New("test error"), 0)
	require.Equal(t, "test error", err.Error())

	err = apierror.New(nil, http.StatusTooManyRequests)
	require.Equal(t, fmt.Sprintf("%d %s", http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)), err.Error())

	err = apierror.New(nil, 0)
	require.Equal(t, "", err.Error())

	err = apierror.New(nil, 999)
	require.Equal(t, "999", err.Error())
}

func TestFromResponse(t *testing.T) {
	err := apierror.FromResponse(0, []byte(" runtime error: timeout\n"))
	require.Equal(t, "runtime error: timeout", err.Error())

	err = apierror.FromResponse(http.StatusGatewayTimeout, []byte(" runtime error: timeout\n"))
	require.Equal(t, "runtime error: timeout", err.Error())

	ae, ok := err.(*apierror.Error)
	require.True(t, ok)
	require.Equal(t, http.StatusGatewayTimeout, ae.Status())
	require.Equal(t, "504 Gateway Timeout: runtime error: timeout", ae.Text())

	err = apierror.FromResponse(http.StatusTooManyRequests, nil)
	require.Equal(t, fmt.Sprintf("%d %s", http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)), err.Error())

	long := strings.Repeat("x", 1000)
	err = apierror.FromResponse(http.StatusBadRequest, []byte(long))
	require.Less(t, len(err.Error()), 300)
}

func TestClassify(t *testing.T) {
	err := fmt.Errorf("fetch failed: %w", apierror.New(nil, http.StatusTooManyRequests))
	require.True(t, apierror.IsRateLimited(err))
	require.True(t, apierror.HasStatus(err, http.StatusTooManyRequests))
	require.False(t, apierror.HasStatus(err, http.StatusNotFound))

	require.False(t, apierror.IsRateLimited(errors.New("connection refused")))
	require.False(t, apierror.IsRateLimited(nil))
}

func TestUnwrap(t *testing.T) {
	errEOF := errors.New("end of file")
	err := apierror.New(errEOF, 0)
	require.ErrorIs(t, err, errEOF)
}
