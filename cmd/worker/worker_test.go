package main

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/marginalia/internal/config"
	"github.com/phrazzld/marginalia/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "beat", "enqueue"}, names)

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.NotNil(t, run.Flags().Lookup("no-beat"))
}

func TestParseEnqueueArgs(t *testing.T) {
	taskType, payload, err := parseEnqueueArgs([]string{task.TypeDeleteExpiredTokens})
	require.NoError(t, err)
	assert.Equal(t, task.TypeDeleteExpiredTokens, taskType)
	assert.Equal(t, "{}", string(payload))

	_, payload, err = parseEnqueueArgs([]string{task.TypeAddNIPSA, `{"userid":"acct:bob@example.com"}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"userid":"acct:bob@example.com"}`, string(payload))

	_, _, err = parseEnqueueArgs([]string{"admin:ping"})
	assert.ErrorContains(t, err, "unknown task type")
}

func TestEnqueueRejectsUnknownTaskBeforeLoadingConfig(t *testing.T) {
	loaded := false
	orig := loadEnv
	loadEnv = func() (*env, error) {
		loaded = true
		return nil, errors.New("should not load")
	}
	defer func() { loadEnv = orig }()

	root := newRootCmd()
	root.SetArgs([]string{"enqueue", "admin:ping"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	assert.ErrorContains(t, err, "unknown task type")
	assert.False(t, loaded)
}

func TestRunPropagatesConfigErrors(t *testing.T) {
	orig := loadEnv
	loadEnv = func() (*env, error) { return nil, errors.New("config validation failed") }
	defer func() { loadEnv = orig }()

	for _, args := range [][]string{{"run"}, {"beat"}, {"enqueue", task.TypeDeleteExpiredTokens}} {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetArgs(args)
		root.SetOut(&out)
		root.SetErr(&out)
		assert.ErrorContains(t, root.Execute(), "config validation failed", "args %v", args)
	}
}

func TestBuildRequestIsComplete(t *testing.T) {
	db, err := sql.Open("pgx", "postgres://marginalia@localhost:5432/marginalia")
	require.NoError(t, err)
	defer db.Close()

	e := &env{
		cfg: &config.Config{Mail: config.MailConfig{
			Host:   "localhost",
			Port:   25,
			Sender: "notification@example.com",
		}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	req := buildRequest(db, e)
	assert.NoError(t, req.Validate())
}
