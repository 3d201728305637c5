package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigure(test *testing.T) {
	dir := test.TempDir()
	yamlPath := filepath.Join(dir, "relay.yaml")
	require.NoError(test, os.WriteFile(yamlPath, []byte("port: 4000\nhistory: 5\necho: true\n"), 0o600))
	missingEnv := filepath.Join(dir, "absent.env")

	cases := []struct {
		name  string
		env   map[string]string
		args  []string
		ok    bool
		fails bool
		check func(r *require.Assertions, port, history int, echo bool, writeTimeout time.Duration)
	}{
		{
			name: "defaults",
			args: []string{"-env-file", missingEnv},
			ok:   true,
			check: func(r *require.Assertions, port, history int, echo bool, writeTimeout time.Duration) {
				r.Equal(1234, port)
				r.Zero(history)
				r.False(echo)
				r.Equal(time.Minute, writeTimeout)
			},
		},
		{
			name: "yaml",
			args: []string{"-env-file", missingEnv, "-config", yamlPath},
			ok:   true,
			check: func(r *require.Assertions, port, history int, echo bool, _ time.Duration) {
				r.Equal(4000, port)
				r.Equal(5, history)
				r.True(echo)
			},
		},
		{
			name: "environment over yaml",
			env:  map[string]string{"RELAY_PORT": "5000"},
			args: []string{"-env-file", missingEnv, "-config", yamlPath},
			ok:   true,
			check: func(r *require.Assertions, port, history int, _ bool, _ time.Duration) {
				r.Equal(5000, port)
				r.Equal(5, history)
			},
		},
		{
			name: "flags over environment and yaml",
			env:  map[string]string{"RELAY_PORT": "5000", "RELAY_HISTORY": "7"},
			args: []string{"-env-file", missingEnv, "-config", yamlPath, "-port", "6000", "-echo=false", "-write-timeout", "0s"},
			ok:   true,
			check: func(r *require.Assertions, port, history int, echo bool, writeTimeout time.Duration) {
				r.Equal(6000, port)
				r.Equal(7, history)
				r.False(echo)
				r.Zero(writeTimeout)
			},
		},
		{name: "help", args: []string{"-help"}},
		{name: "version", args: []string{"-version"}},
		{name: "unknown flag", args: []string{"-colour"}, fails: true},
		{name: "invalid port", args: []string{"-env-file", missingEnv, "-port", "0"}, fails: true},
		{name: "missing config", args: []string{"-env-file", missingEnv, "-config", filepath.Join(dir, "absent.yaml")}, fails: true},
	}
	for _, c := range cases {
		test.Run(c.name, func(test *testing.T) {
			r := require.New(test)
			for k, v := range c.env {
				test.Setenv(k, v)
			}
			out := &bytes.Buffer{}
			cfg, ok, err := configure(c.args, out)
			if c.fails {
				r.Error(err)
				r.False(ok)
				return
			}
			r.NoError(err)
			r.Equal(c.ok, ok)
			if c.check != nil {
				c.check(r, cfg.Port, cfg.History, cfg.Echo, cfg.WriteTimeout)
			}
		})
	}
}

func TestConfigure_Output(test *testing.T) {
	out := &bytes.Buffer{}
	_, ok, err := configure([]string{"-version"}, out)
	require.NoError(test, err)
	require.False(test, ok)
	require.Contains(test, out.String(), "v"+Version)

	out.Reset()
	_, ok, err = configure([]string{"-help"}, out)
	require.NoError(test, err)
	require.False(test, ok)
	require.Contains(test, out.String(), "-shutdown-timeout")
}
