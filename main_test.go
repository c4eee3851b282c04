package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopguide/internal/auth"
	"shopguide/internal/handlers"
	"shopguide/internal/media"
	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

func TestParsePosition(t *testing.T) {
	n, err := parsePosition("1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, raw := range []string{"0", "-2", "x", ""} {
		_, err := parsePosition(raw)
		assert.Error(t, err, raw)
	}
}

func apiServer(t *testing.T) (*httptest.Server, *store.Memory, []models.Product) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	st := store.NewMemory()

	_, err := auth.CreateFirstAdmin(ctx, st, "admin", "admin@example.com", "secret1")
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var picks []models.Product
	for i := 1; i <= 3; i++ {
		p := models.Product{
			Title:     fmt.Sprintf("Gadget %d", i),
			IsTopPick: true,
			Rank:      i,
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, st.InsertProduct(ctx, &p))
		picks = append(picks, p)
	}

	r := gin.New()
	handlers.RegisterAPI(r, handlers.Deps{
		Store:     st,
		Ranking:   ranking.NewService(st, nil),
		Images:    media.NewLocal(t.TempDir()),
		JWTSecret: "cli-secret",
		TokenTTL:  time.Hour,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, st, picks
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTopPicksMoveCommand(t *testing.T) {
	srv, st, picks := apiServer(t)
	login := []string{"--api", srv.URL, "--user", "admin", "--password", "secret1"}

	out, err := runCLI(t, append([]string{"top-picks", "move", "3", "1"}, login...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "Gadget 3")
	assert.Contains(t, lines[2], "Gadget 1")
	assert.Contains(t, lines[3], "Gadget 2")

	stored, err := st.GetProduct(context.Background(), picks[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Rank)
}

func TestTopPicksCommandRequiresCredentials(t *testing.T) {
	srv, _, _ := apiServer(t)
	_, err := runCLI(t, "top-picks", "list", "--api", srv.URL, "--user", "", "--password", "", "--token", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token")
}

func TestTopPicksReorderRejectsPartialOrder(t *testing.T) {
	srv, _, picks := apiServer(t)
	_, err := runCLI(t, "top-picks", "reorder", picks[1].ID.Hex(),
		"--api", srv.URL, "--user", "admin", "--password", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reorder failed")
}
