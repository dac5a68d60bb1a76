package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/client"
	"github.com/yukikurage/lost-and-found-api/internal/config"
	"github.com/yukikurage/lost-and-found-api/internal/database/dbtest"
	"github.com/yukikurage/lost-and-found-api/internal/dto"
	"github.com/yukikurage/lost-and-found-api/internal/repository"
	"github.com/yukikurage/lost-and-found-api/internal/router"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/uploads"
)

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	tokens := auth.NewIssuer("cli-test-key", time.Hour)
	files, err := uploads.NewManager(uploads.Config{Root: t.TempDir()})
	require.NoError(t, err)

	r, err := router.New(router.Deps{
		Config:      &config.Config{SessionSecret: "cli-test-secret", TokenTTL: time.Hour},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens:      tokens,
		AuthService: services.NewAuthService(repository.NewUserRepository(db), tokens),
		ItemService: services.NewItemService(repository.NewItemRepository(db), files, nil),
		Uploads:     files,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func TestRun_Workflow(t *testing.T) {
	server := newServer(t)

	_, err := runCLI(t, "-server", server, "register", "-username", "alice", "-email", "alice@example.com", "-password", "pw1")
	require.NoError(t, err)

	out, err := runCLI(t, "-server", server, "login", "-username", "alice", "-password", "pw1")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = runCLI(t, "-server", server, "-token", token, "report", "-title", "Wallet", "-category", "accessories")
	require.NoError(t, err)
	var item dto.ItemDTO
	require.NoError(t, json.Unmarshal([]byte(out), &item))
	assert.Equal(t, "Wallet", item.Title)

	out, err = runCLI(t, "-server", server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet")
	assert.Contains(t, out, "1 of 1 items")

	out, err = runCLI(t, "-server", server, "-token", token, "status", "1", "returned")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "returned"`)

	out, err = runCLI(t, "-server", server, "-token", token, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"views": 1`)

	out, err = runCLI(t, "-server", server, "-token", token, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted item 1\n", out)

	_, err = runCLI(t, "-server", server, "-token", token, "show", "1")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestRun_Errors(t *testing.T) {
	_, err := runCLI(t)
	assert.Error(t, err)

	_, err = runCLI(t, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCLI(t, "show", "abc")
	assert.ErrorContains(t, err, "invalid item id")

	_, err = runCLI(t, "status", "1")
	assert.Error(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	_, err = runCLI(t, "-server", srv.URL, "list")
	assert.ErrorIs(t, err, client.ErrUpstreamUnavailable)
}
