package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		stdin   string
		want    string
		wantErr error
	}{
		{name: "env wins", env: map[string]string{EnvMasterPassword: "FromEnv1"}, stdin: "FromStdin1\n", want: "FromEnv1"},
		{name: "first stdin line", stdin: "FromStdin1\nignored\n", want: "FromStdin1"},
		{name: "crlf", stdin: "Windows1\r\n", want: "Windows1"},
		{name: "no trailing newline", stdin: "NoNewline", want: "NoNewline"},
		{name: "empty env falls back", env: map[string]string{EnvMasterPassword: ""}, stdin: "FromStdin1\n", want: "FromStdin1"},
		{name: "nothing", stdin: "", wantErr: ErrNoPassword},
		{name: "blank line", stdin: "\n", wantErr: ErrNoPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &passwordSource{
				lookupEnv: func(k string) (string, bool) {
					v, ok := tt.env[k]
					return v, ok
				},
				in: strings.NewReader(tt.stdin),
			}

			got, err := src.Password()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticPassword(t *testing.T) {
	got, err := StaticPassword("x").Password()
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	_, err = StaticPassword("").Password()
	assert.ErrorIs(t, err, ErrNoPassword)
}
