package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testDeps struct {
	auth      *fakeAuth
	instances *fakeInstances
	hooks     *fakeHooks
	devices   *fakeDevices
	notifier  *fakeDispatcher
}

func newTestRouter() (*gin.Engine, *testDeps) {
	gin.SetMode(gin.TestMode)
	d := &testDeps{
		auth:      &fakeAuth{},
		instances: &fakeInstances{},
		hooks:     &fakeHooks{},
		devices:   &fakeDevices{},
		notifier:  &fakeDispatcher{},
	}
	s := New(d.auth, d.instances, d.hooks, d.devices, d.notifier, zap.NewNop())
	return s.Router(), d
}

func do(r http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var bearer = map[string]string{"Authorization": "Bearer good"}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}
