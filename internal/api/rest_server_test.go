package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/auth"
	"github.com/annel0/voxel-studio/internal/session"
	"github.com/annel0/voxel-studio/internal/storage"
	"github.com/annel0/voxel-studio/internal/voxel"
)

// Метрики Prometheus регистрируются в глобальном реестре,
// поэтому сервер на весь тестовый бинарник один.
var (
	serverOnce sync.Once
	testServer *RestServer
)

func testRestServer(t *testing.T) *RestServer {
	t.Helper()
	serverOnce.Do(func() {
		repo, err := auth.NewMemoryUserRepo()
		if err != nil {
			t.Fatalf("создание хранилища пользователей: %v", err)
		}
		sess := session.New(session.Config{
			Store:      voxel.DefaultStoreConfig(),
			FillBudget: 10000,
			Source:     "test",
		}, nil, nil)
		testServer = NewRestServer(Config{
			Port:     ":0",
			UserRepo: repo,
			Session:  sess,
			Projects: storage.NewMemoryRepo(),
		})
	})
	return testServer
}

func doJSON(rs *RestServer, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	rs.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) GenericResponse {
	t.Helper()
	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func loginAs(t *testing.T, rs *RestServer, username, password string) string {
	t.Helper()
	w := doJSON(rs, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRestAPI(t *testing.T) {
	rs := testRestServer(t)

	t.Run("Health", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("LoginRejectsBadCredentials", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ProtectedRequiresToken", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/api/blocks", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doJSON(rs, http.MethodGet, "/api/blocks", "invalid.token.here", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	token := loginAs(t, rs, "admin", "admin")

	t.Run("PlaceAndGetBlock", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/place", token, PlaceRequest{
			CellRequest: CellRequest{X: 5, Y: 5, Z: 0},
			Type:        "brick",
			Layer:       "walls",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodGet, "/api/blocks/5/5/0", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "brick", data["type"])
		assert.Equal(t, "walls", data["layer"])
	})

	t.Run("PlaceRejectsInvalid", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/place", token, PlaceRequest{
			CellRequest: CellRequest{X: 500, Y: 5, Z: 0},
			Type:        "brick",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(rs, http.MethodPost, "/api/edit/place", token, PlaceRequest{
			CellRequest: CellRequest{X: 5, Y: 6, Z: 0},
			Type:        "vibranium",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EraseMissingBlock", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/erase", token, CellRequest{X: 90, Y: 90, Z: 0})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("LineAndHistory", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/line", token, SegmentRequest{
			From: CellRequest{X: 10, Y: 10, Z: 0},
			To:   CellRequest{X: 15, Y: 10, Z: 0},
			Type: "concrete",
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(6), data["placed"])

		w = doJSON(rs, http.MethodPost, "/api/history/undo", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		// Линии больше нет
		w = doJSON(rs, http.MethodGet, "/api/blocks/10/10/0", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(rs, http.MethodPost, "/api/history/redo", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodGet, "/api/blocks/10/10/0", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("RedoExhausted", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/history/redo", token, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("FillSameTypeIsNoOp", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/fill", token, FillRequest{
			CellRequest: CellRequest{X: 5, Y: 5, Z: 0},
			Type:        "brick",
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(0), data["placed"])
	})

	t.Run("ViewSwitching", func(t *testing.T) {
		w := doJSON(rs, http.MethodPut, "/api/view", token, map[string]string{"view": "isometric"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodGet, "/api/view", token, nil)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "isometric", data["view"])

		w = doJSON(rs, http.MethodPut, "/api/view", token, map[string]string{"view": "diagonal"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Возвращаем вид сверху для остальных проверок
		w = doJSON(rs, http.MethodPut, "/api/view", token, map[string]string{"view": "top"})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("LevelSwitching", func(t *testing.T) {
		w := doJSON(rs, http.MethodPut, "/api/level", token, map[string]int{"level": 3})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodGet, "/api/level", token, nil)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["level"])
		assert.Equal(t, "+3", data["name"])

		w = doJSON(rs, http.MethodPut, "/api/level", token, map[string]int{"level": 99})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(rs, http.MethodPut, "/api/level", token, map[string]int{"level": 0})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ProjectionRoundTrip", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/api/projection/screen?x=5&y=5&z=0", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		screen := resp.Data.(map[string]interface{})

		path := fmt.Sprintf("/api/projection/grid?x=%v&y=%v",
			screen["x"].(float64)+1, screen["y"].(float64)+1)
		w = doJSON(rs, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp = decodeResponse(t, w)
		cell := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(5), cell["x"])
		assert.Equal(t, float64(5), cell["y"])
	})

	t.Run("BlockTypesSorted", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/api/blocktypes", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		types := data["types"].([]interface{})
		require.GreaterOrEqual(t, len(types), 5)

		prev := ""
		for _, raw := range types {
			id := raw.(map[string]interface{})["id"].(string)
			assert.Greater(t, id, prev, "Типы отсортированы по идентификатору")
			prev = id
		}
	})

	t.Run("ProjectSaveLoadDelete", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/projects/new/save?name=Сцена", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		id := resp.Data.(map[string]interface{})["id"].(string)
		require.NotEmpty(t, id)

		w = doJSON(rs, http.MethodPost, "/api/edit/clear", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodPost, "/api/projects/"+id+"/load", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp = decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Greater(t, data["blocks"].(float64), float64(0))
		assert.Equal(t, float64(0), data["dropped"])

		w = doJSON(rs, http.MethodDelete, "/api/projects/"+id, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(rs, http.MethodPost, "/api/projects/"+id+"/load", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ExportImport", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/api/projects/export?name=Экспорт", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".vxp")
		exported := w.Body.Bytes()

		req := httptest.NewRequest(http.MethodPost, "/api/projects/import", bytes.NewReader(exported))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		rs.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		// Мусор вместо файла проекта
		req = httptest.NewRequest(http.MethodPost, "/api/projects/import", bytes.NewReader([]byte("{мусор")))
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		rs.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("AdminRegister", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/admin/register", token, RegisterRequest{
			Username: "builder",
			Password: "build123",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		userToken := loginAs(t, rs, "builder", "build123")

		// Обычный пользователь не может регистрировать других
		w = doJSON(rs, http.MethodPost, "/api/admin/register", userToken, RegisterRequest{
			Username: "intruder",
			Password: "pass123",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Scaffold", func(t *testing.T) {
		w := doJSON(rs, http.MethodPost, "/api/edit/scaffold", token, ScaffoldRequest{
			Seed:  42,
			Width: 4,
			Depth: 4,
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.GreaterOrEqual(t, data["placed"].(float64), float64(16))

		// Подложка отменяема одним undo
		w = doJSON(rs, http.MethodPost, "/api/history/undo", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Stats", func(t *testing.T) {
		w := doJSON(rs, http.MethodGet, "/api/stats", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		engine := data["engine"].(map[string]interface{})
		assert.Contains(t, engine, "blocks")
		assert.Contains(t, engine, "can_undo")
	})
}
