// internal/handlers/errors_test.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bcdastro/backend/internal/services"
)

func TestRespondServiceErrorHidesInternalFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	dbErr := fmt.Errorf("failed to create purchase: %w", errors.New("driver: bad connection"))
	respondServiceError(c, dbErr, "media")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "bad connection")
	require.NotContains(t, w.Body.String(), "failed to create purchase")
	require.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestRespondServiceErrorKeepsInputFaultsClientFacing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondServiceError(c, &services.InputError{Msg: "only draft media can be submitted for review"}, "media")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "only draft media can be submitted for review")
}

func TestRespondServiceErrorSentinelMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrPriceMismatch, http.StatusBadRequest},
		{services.ErrMethodNotSupported, http.StatusBadRequest},
		{services.ErrAlreadyOwned, http.StatusConflict},
		{services.ErrGatewayUnavailable, http.StatusInternalServerError},
		{services.ErrDownloadLimit, http.StatusForbidden},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, fmt.Errorf("context: %w", tc.err), "media")
		require.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}
