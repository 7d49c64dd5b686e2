package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-anon-key"

type testBackend struct {
	t   *testing.T
	srv *Server
	url string
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	srv, err := New(NewMemoryStore(), Config{APIKey: testKey, JWTSecret: []byte("secret"), Quiet: true})
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Router())
	t.Cleanup(hs.Close)
	return &testBackend{t: t, srv: srv, url: hs.URL}
}

func (b *testBackend) do(method, path, bearer string, body any, header ...string) (int, []byte) {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(b.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, b.url+path, r)
	require.NoError(b.t, err)
	req.Header.Set("apikey", testKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = testKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, data
}

// signUp registers a user and returns its token and id
func (b *testBackend) signUp(email string) (string, string) {
	b.t.Helper()
	status, data := b.do(http.MethodPost, "/auth/v1/signup", "", map[string]any{
		"email": email, "password": "password123", "data": map[string]string{"nombre": "X"},
	})
	require.Equal(b.t, http.StatusOK, status, string(data))
	var resp authResponse
	require.NoError(b.t, json.Unmarshal(data, &resp))
	return resp.AccessToken, resp.User.ID
}

func TestRejectsMissingAPIKey(t *testing.T) {
	b := newTestBackend(t)
	resp, err := http.Get(b.url + "/rest/v1/cursos")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIKeyMustMatchExactly(t *testing.T) {
	b := newTestBackend(t)
	get := func(key, bearer string) int {
		req, err := http.NewRequest(http.MethodGet, b.url+"/rest/v1/cursos", nil)
		require.NoError(t, err)
		req.Header.Set("apikey", key)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	// same length as testKey, one byte off
	assert.Equal(t, http.StatusUnauthorized, get("test-anon-kez", ""))
	assert.Equal(t, http.StatusUnauthorized, get("test-anon-key2", ""))
	assert.Equal(t, http.StatusOK, get(testKey, ""))

	// the service key as bearer means anonymous; a near miss is an invalid JWT
	assert.Equal(t, http.StatusOK, get(testKey, testKey))
	assert.Equal(t, http.StatusUnauthorized, get(testKey, "test-anon-kez"))
}

func TestKeyMatches(t *testing.T) {
	assert.True(t, keyMatches("abc", "abc"))
	assert.False(t, keyMatches("abd", "abc"))
	assert.False(t, keyMatches("ab", "abc"))
	assert.False(t, keyMatches("", "abc"))
}

func TestHealth(t *testing.T) {
	b := newTestBackend(t)
	resp, err := http.Get(b.url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	b := newTestBackend(t)
	token, id := b.signUp("a@b.co")
	assert.NotEmpty(t, token)

	status, data := b.do(http.MethodPost, "/auth/v1/signup", "", map[string]any{"email": "A@b.co", "password": "password123"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(data), "User already registered")

	status, data = b.do(http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "a@b.co", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), "invalid_grant")

	status, data = b.do(http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "a@b.co", "password": "password123"})
	require.Equal(t, http.StatusOK, status)
	var resp authResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, id, resp.User.ID)

	status, data = b.do(http.MethodGet, "/auth/v1/user", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"email":"a@b.co"`)

	status, _ = b.do(http.MethodGet, "/auth/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = b.do(http.MethodGet, "/rest/v1/cursos", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestInsertPolicyAndDuplicates(t *testing.T) {
	b := newTestBackend(t)
	token, id := b.signUp("a@b.co")
	_, otherID := b.signUp("c@d.co")

	status, data := b.do(http.MethodPost, "/rest/v1/inscripciones", token, map[string]any{"usuario_id": otherID, "curso_id": "c1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(data), "42501")

	status, _ = b.do(http.MethodPost, "/rest/v1/inscripciones", "", map[string]any{"usuario_id": id, "curso_id": "c1"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = b.do(http.MethodPost, "/rest/v1/inscripciones", token, map[string]any{"usuario_id": id, "curso_id": "c1", "precio_pagado": 10})
	assert.Equal(t, http.StatusCreated, status)

	status, data = b.do(http.MethodPost, "/rest/v1/inscripciones", token, map[string]any{"usuario_id": id, "curso_id": "c1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(data), "23505")

	status, data = b.do(http.MethodGet, "/rest/v1/inscripciones?select=*", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))
}

func TestUnknownTable(t *testing.T) {
	b := newTestBackend(t)
	status, data := b.do(http.MethodGet, "/rest/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(data), "42P01")
}

func TestSelectEmbedsAndOrders(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.srv.Seed(context.Background()))

	status, data := b.do(http.MethodGet, "/rest/v1/cursos?select=*,profiles(nombre,apellido)&order=created_at.desc", "", nil)
	require.Equal(t, http.StatusOK, status, string(data))

	var courses []map[string]any
	require.NoError(t, json.Unmarshal(data, &courses))
	require.Len(t, courses, 3)
	assert.Equal(t, "Personal Finance", courses[0]["nombre_curso"])
	assert.Equal(t, "Intro to Go", courses[2]["nombre_curso"])
	author := courses[0]["profiles"].(map[string]any)
	assert.Equal(t, "Laura", author["nombre"])
	assert.NotContains(t, author, "plan")

	id := courses[2]["id"].(string)
	status, data = b.do(http.MethodGet, "/rest/v1/cursos?select=id,secciones(nombre_seccion,tareas(titulo,recursos(*)))&id=eq."+id, "", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	require.NoError(t, json.Unmarshal(data, &courses))
	require.Len(t, courses, 1)
	sections := courses[0]["secciones"].([]any)
	require.Len(t, sections, 2)
	first := sections[0].(map[string]any)
	assert.Equal(t, "Getting started", first["nombre_seccion"])
	tasks := first["tareas"].([]any)
	require.Len(t, tasks, 2)
	resources := tasks[0].(map[string]any)["recursos"].([]any)
	assert.Len(t, resources, 2)

	status, data = b.do(http.MethodGet, "/rest/v1/cursos?select=*,nope(*)", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), "PGRST200")

	assert.Error(t, b.srv.Seed(context.Background()))
}

func TestUpdateAndDeleteOnlyOwnRows(t *testing.T) {
	b := newTestBackend(t)
	token, id := b.signUp("a@b.co")
	otherToken, _ := b.signUp("c@d.co")

	status, data := b.do(http.MethodPost, "/rest/v1/tarjetas_simuladas", token,
		map[string]any{"id": "k1", "usuario_id": id, "numero_tarjeta": "4111111111111111", "saldo_simulado": 500},
		"Prefer", "return=representation")
	require.Equal(t, http.StatusCreated, status, string(data))

	status, _ = b.do(http.MethodPatch, "/rest/v1/tarjetas_simuladas?id=eq.k1", otherToken, map[string]any{"saldo_simulado": 1})
	assert.Equal(t, http.StatusNoContent, status)

	status, data = b.do(http.MethodPatch, "/rest/v1/tarjetas_simuladas?id=eq.k1", token, map[string]any{"saldo_simulado": 490}, "Prefer", "return=representation")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"saldo_simulado":490`)

	status, _ = b.do(http.MethodPatch, "/rest/v1/tarjetas_simuladas?id=eq.k1", token, map[string]any{"usuario_id": "someone"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = b.do(http.MethodDelete, "/rest/v1/tarjetas_simuladas?id=eq.k1", otherToken, nil)
	assert.Equal(t, http.StatusNoContent, status)
	_, data = b.do(http.MethodGet, "/rest/v1/tarjetas_simuladas?usuario_id=eq."+id, token, nil)
	assert.Contains(t, string(data), "k1")

	status, _ = b.do(http.MethodDelete, "/rest/v1/tarjetas_simuladas?id=eq.k1", token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	_, data = b.do(http.MethodGet, "/rest/v1/tarjetas_simuladas?usuario_id=eq."+id, token, nil)
	assert.JSONEq(t, `[]`, string(data))
}

func TestStorageUpload(t *testing.T) {
	b := newTestBackend(t)
	token, _ := b.signUp("a@b.co")

	req, err := http.NewRequest(http.MethodPost, b.url+"/storage/v1/object/avatars/me.png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	req.Header.Set("apikey", testKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/png")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// second upload without upsert conflicts
	req, _ = http.NewRequest(http.MethodPost, b.url+"/storage/v1/object/avatars/me.png", bytes.NewReader([]byte("x")))
	req.Header.Set("apikey", testKey)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Get(b.url + "/storage/v1/object/public/avatars/me.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestMonotonicTimestamps(t *testing.T) {
	b := newTestBackend(t)
	prev := b.srv.now()
	for i := 0; i < 100; i++ {
		next := b.srv.now()
		assert.Greater(t, next, prev)
		prev = next
	}
}
