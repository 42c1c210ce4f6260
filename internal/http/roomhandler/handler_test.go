package roomhandler

import (
	"encoding/json"
	"fmt"
	"lobbyhub/internal/lobby"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *lobby.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	codes := []lobby.RoomCode{"AAAAAA", "BBBBBB", "CCCCCC"}
	i := 0
	reg := lobby.NewRegistry(lobby.WithCodeGenerator(func() lobby.RoomCode {
		c := codes[i]
		i++
		return c
	}))
	engine := gin.New()
	New(reg).Register(engine)
	return engine, reg
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestHandler_Info(t *testing.T) {
	engine, reg := setup(t)
	code, _ := reg.Create("c1", "Alice")
	_, err := reg.Join(code, "c2", "Bob")
	require.NoError(t, err)
	reg.AssignTeam(code, "c2", lobby.TeamBlue)

	w := get(engine, "/rooms/aaaaaa")
	require.Equal(t, http.StatusOK, w.Code)

	var snap lobby.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, code, snap.Code)
	require.Len(t, snap.Members, 2)
	assert.True(t, snap.Members[0].IsHost)
	require.Len(t, snap.Teams.Blue, 1)
	assert.Equal(t, "Bob", snap.Teams.Blue[0].DisplayName)
	assert.Equal(t, []string{"Alice created the room.", "Bob joined the room."}, snap.Log)
}

func TestHandler_InfoNotFound(t *testing.T) {
	engine, _ := setup(t)
	w := get(engine, "/rooms/ZZZZZZ")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"room not found"}`, w.Body.String())
}

func TestHandler_List(t *testing.T) {
	engine, reg := setup(t)
	reg.Create("c1", "Alice")
	reg.Create("c2", "Bob")
	reg.Create("c3", "Carol")

	w := get(engine, "/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	var all []lobby.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, lobby.RoomCode("AAAAAA"), all[0].Code)
	assert.Equal(t, "Alice", all[0].Host)

	w = get(engine, "/rooms?limit=1&offset=1")
	var page []lobby.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page, 1)
	assert.Equal(t, lobby.RoomCode("BBBBBB"), page[0].Code)

	w = get(engine, "/rooms?offset=10")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(engine, "/rooms?limit=500")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(engine, "/rooms?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListDefaultLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	n := 0
	reg := lobby.NewRegistry(lobby.WithCodeGenerator(func() lobby.RoomCode {
		n++
		return lobby.RoomCode(fmt.Sprintf("R%05d", n))
	}))
	for i := 0; i < 60; i++ {
		reg.Create(lobby.ConnID(fmt.Sprintf("c%d", i)), "Host")
	}
	engine := gin.New()
	New(reg).Register(engine)

	var page []lobby.Summary
	require.NoError(t, json.Unmarshal(get(engine, "/rooms").Body.Bytes(), &page))
	assert.Len(t, page, 50)

	require.NoError(t, json.Unmarshal(get(engine, "/rooms?limit=100").Body.Bytes(), &page))
	assert.Len(t, page, 60)
}

func TestHandler_Health(t *testing.T) {
	engine, reg := setup(t)
	reg.Create("c1", "Alice")

	w := get(engine, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","rooms":1}`, w.Body.String())
}
