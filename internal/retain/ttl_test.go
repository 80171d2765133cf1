package retain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLResolve(t *testing.T) {
	t.Run("keep-never-expires", func(t *testing.T) {
		_, expires := Keep().Resolve(true)
		assert.False(t, expires)
		_, expires = Keep().Resolve(false)
		assert.False(t, expires)
	})

	t.Run("fixed-ignores-read-state", func(t *testing.T) {
		ttl := Fixed(7 * 24 * time.Hour)
		for _, seen := range []bool{true, false} {
			d, expires := ttl.Resolve(seen)
			require.True(t, expires)
			assert.Equal(t, 7*24*time.Hour, d)
		}
	})

	t.Run("read-conditioned-picks-read-branch", func(t *testing.T) {
		ttl := ReadConditioned(7*24*time.Hour, 30*24*time.Hour)
		d, expires := ttl.Resolve(true)
		require.True(t, expires)
		assert.Equal(t, 7*24*time.Hour, d)
	})

	t.Run("read-conditioned-picks-unread-branch", func(t *testing.T) {
		ttl := ReadConditioned(7*24*time.Hour, 30*24*time.Hour)
		d, expires := ttl.Resolve(false)
		require.True(t, expires)
		assert.Equal(t, 30*24*time.Hour, d)
	})
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "7d", want: 7 * 24 * time.Hour},
		{input: "0d", want: 0},
		{input: " 3d ", want: 3 * 24 * time.Hour},
		{input: "12h", want: 12 * time.Hour},
		{input: "90m", want: 90 * time.Minute},
		{input: "-1d", wantErr: true},
		{input: "-12h", wantErr: true},
		{input: "xd", wantErr: true},
		{input: "7", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDuration(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
