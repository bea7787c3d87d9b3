package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"weddingtimeline/internal/timeline"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{timeline.Validationf("op", "bad"), http.StatusBadRequest},
		{timeline.NotFoundf("op", "missing"), http.StatusNotFound},
		{timeline.Unauthorizedf("op", "nope"), http.StatusForbidden},
		{timeline.Conflictf("op", "stale"), http.StatusConflict},
		{timeline.DependencyError("notify", errors.New("down")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", timeline.NotFoundf("op", "x")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
