package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/metrics"
	"github.com/roach88/coedit/internal/schema"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) (*engine.Store, *gin.Engine) {
	t.Helper()
	reg, err := schema.NewRegistry(schema.Schema{
		Name: "Contact Form",
		Fields: []schema.FieldDefinition{
			{Name: "name", Label: "Name", Validator: &schema.String{MaxLength: schema.Int(20)}, Default: ir.String("")},
			{Name: "count", Label: "Count", Validator: &schema.Number{Min: schema.Float(0), Integer: true}, Default: ir.Number(0)},
		},
	})
	require.NoError(t, err)

	m := metrics.New(false)
	store := engine.NewStore(reg, engine.WithEngineOptions(engine.WithMetrics(m)))
	return store, New(store, WithMetrics(m)).Router()
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestState(t *testing.T) {
	_, router := setupTestServer(t)

	w := do(router, "GET", "/state", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"name":""}`, w.Body.String())
}

func TestPatch_Success(t *testing.T) {
	store, router := setupTestServer(t)

	w := do(router, "POST", "/patch?source=llm", `[{"op":"replace","path":"/name","value":"<Ada>"}]`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"applied":1}`, w.Body.String())
	assert.Equal(t, ir.String("<Ada>"), store.Current()["name"])

	history := store.History()
	require.Len(t, history, 1)
	assert.Equal(t, ir.SourceLLM, history[0].Source)
}

func TestPatch_FailureIs422(t *testing.T) {
	store, router := setupTestServer(t)

	w := do(router, "POST", "/patch", `[{"op":"replace","path":"/nope","value":1}]`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unknown field: nope", body["error"])
	assert.Equal(t, ir.SourceUser, store.History()[0].Source, "default source")
}

func TestPatch_MalformedTextIs422(t *testing.T) {
	store, router := setupTestServer(t)

	w := do(router, "POST", "/patch", `{"foo":1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Expected JSON Patch array or { patch: [...] } format", decode(t, w)["error"])
	assert.Empty(t, store.History())
}

func TestPatch_BadSource(t *testing.T) {
	_, router := setupTestServer(t)

	w := do(router, "POST", "/patch?source=robot", `[]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetField(t *testing.T) {
	store, router := setupTestServer(t)

	w := do(router, "PUT", "/fields/count", `3`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ir.Number(3), store.Current()["count"])
	assert.Empty(t, store.History(), "direct writes are not audited")

	w = do(router, "PUT", "/fields/count", `-1`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Invalid value for count")
	assert.Equal(t, ir.Number(3), store.Current()["count"])

	w = do(router, "PUT", "/fields/missing", `1`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown field: missing", decode(t, w)["error"])

	w = do(router, "PUT", "/fields/count", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReset(t *testing.T) {
	store, router := setupTestServer(t)
	require.True(t, store.SetField("name", ir.String("x")))

	w := do(router, "POST", "/reset", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ir.String(""), store.Current()["name"])
}

func TestHistory(t *testing.T) {
	_, router := setupTestServer(t)

	w := do(router, "GET", "/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	do(router, "POST", "/patch?source=llm", `[{"op":"replace","path":"/count","value":1}]`)

	w = do(router, "GET", "/history", "")
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0]["id"])
	assert.Equal(t, "llm", entries[0]["source"])

	w = do(router, "DELETE", "/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, "GET", "/history", "")
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestContext(t *testing.T) {
	_, router := setupTestServer(t)

	w := do(router, "GET", "/context", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Contact Form\n"))
}

func TestToolSchema(t *testing.T) {
	_, router := setupTestServer(t)

	w := do(router, "GET", "/tool-schema", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "patch_contact_form", decode(t, w)["name"])
}

func TestMetrics(t *testing.T) {
	_, router := setupTestServer(t)
	do(router, "POST", "/patch?source=llm", `[{"op":"replace","path":"/count","value":1}]`)

	w := do(router, "GET", "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coedit_engine_patches_total")
}

func TestMetrics_NotRegisteredWithoutOption(t *testing.T) {
	reg, err := schema.NewRegistry(schema.Schema{
		Name:   "F",
		Fields: []schema.FieldDefinition{{Name: "a", Label: "A", Validator: &schema.Boolean{}, Default: ir.Bool(false)}},
	})
	require.NoError(t, err)
	router := New(engine.NewStore(reg)).Router()

	w := do(router, "GET", "/metrics", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
