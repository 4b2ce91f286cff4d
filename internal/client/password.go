package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvMasterPassword is the environment variable checked before stdin.
const EnvMasterPassword = "VAULT_MASTER_PASSWORD"

// ErrNoPassword is returned when neither the environment nor stdin provide
// a master password.
var ErrNoPassword = errors.New("no master password provided")

type passwordSource struct {
	lookupEnv func(string) (string, bool)
	in        io.Reader
}

// NewPasswordSource reads the password from VAULT_MASTER_PASSWORD or, when
// unset, from the first line of in.
func NewPasswordSource(in io.Reader) PasswordSource {
	return &passwordSource{lookupEnv: os.LookupEnv, in: in}
}

func (p *passwordSource) Password() (string, error) {
	if v, ok := p.lookupEnv(EnvMasterPassword); ok && v != "" {
		return v, nil
	}
	if p.in == nil {
		return "", ErrNoPassword
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read master password: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ErrNoPassword
	}
	return line, nil
}

// StaticPassword is a PasswordSource returning a fixed value.
type StaticPassword string

func (s StaticPassword) Password() (string, error) {
	if s == "" {
		return "", ErrNoPassword
	}
	return string(s), nil
}
