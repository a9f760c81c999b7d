package timezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GetTimezone(t *testing.T) {
	svc, err := NewService()
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"Stockholm", 59.3293, 18.0686, "Europe/Stockholm"},
		{"Denver", 39.7392, -104.9903, "America/Denver"},
		{"Tokyo", 35.6762, 139.6503, "Asia/Tokyo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetTimezone(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewService_Singleton(t *testing.T) {
	a, err := NewService()
	require.NoError(t, err)
	b, err := NewService()
	require.NoError(t, err)
	assert.Same(t, a, b)
}
