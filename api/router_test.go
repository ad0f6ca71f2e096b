package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const (
	testAdminUser = "admin"
	testAdminPass = "adminpass123"
)

// newTestAPI wires a full router against a seeded temp media root:
//
//	a.jpg (real image), b.mp4 (1000 bytes), c.txt
//	sub/one.jpg, sub/two.txt
func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mediaRoot := t.TempDir()
	state := t.TempDir()

	seedImage(t, filepath.Join(mediaRoot, "a.jpg"))
	seedBytes(t, filepath.Join(mediaRoot, "b.mp4"), videoBody())
	seedBytes(t, filepath.Join(mediaRoot, "c.txt"), []byte("c"))
	seedBytes(t, filepath.Join(mediaRoot, "sub", "one.jpg"), []byte("1"))
	seedBytes(t, filepath.Join(mediaRoot, "sub", "two.txt"), []byte("22"))

	thumbDir := filepath.Join(state, "thumbs")
	require.NoError(t, os.MkdirAll(thumbDir, 0o755))

	viper.Set("media.root", mediaRoot)
	viper.Set("media.thumbnail_cache", thumbDir)
	viper.Set("media.probe_timeout", "5s")
	viper.Set("db.path", filepath.Join(state, "users.db"))
	viper.Set("jwt.secret", "test-secret")
	viper.Set("jwt.ttl_hours", 72)
	viper.Set("admin.username", testAdminUser)
	viper.Set("admin.password", testAdminPass)
	viper.Set("upload.max_size", int64(10<<20))
	viper.Set("host.cors_origins", []string{"http://localhost"})

	a, err := NewRouter()
	require.NoError(t, err)
	return a
}

func videoBody() []byte {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = byte(i % 251)
	}
	return body
}

func seedBytes(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func seedImage(t *testing.T, path string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	seedBytes(t, path, buf.Bytes())
}

func do(a *API, method, url, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *API, username, password string) string {
	t.Helper()

	w := do(a, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// createUser provisions an extra account through the admin API and
// returns its token.
func createUser(t *testing.T, a *API, adminToken, username, role string) string {
	t.Helper()

	w := do(a, http.MethodPost, "/api/auth/users", adminToken, gin.H{
		"username": username,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return login(t, a, username, "password123")
}
