package router_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tokenverifier "pet-adoption-api/internal/adapters/auth/token"
	"pet-adoption-api/internal/platform/token"
	"pet-adoption-api/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	issuer, err := token.NewIssuer("pet-adoption-test", "test-secret-0123456789abcdef", 15*time.Minute)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokenverifier.NewVerifier(issuer),
		Issuer:       issuer,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_AdoptionFlow(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := register(t, ts.URL, "owner@example.com")
	adopterToken, adopterID := register(t, ts.URL, "adopter@example.com")
	otherToken, _ := register(t, ts.URL, "other@example.com")

	// 1) Owner publica una mascota
	petID := createPet(t, ts.URL, ownerToken, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"breed":   "mixed",
		"sex":     "male",
		"size":    "medium",
		"city":    "Lima",
	})

	// 2) Feed público la muestra (sin token)
	{
		st, body := doReq(t, ts.URL, "GET", "/pets?species=dog", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list pets, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 pet in feed, got %d", len(items))
		}
	}

	// 3) Adoptante marca favorito (PUT idempotente)
	for i := 0; i < 2; i++ {
		st, body := doReq(t, ts.URL, "PUT", "/pets/"+petID+"/favorite", adopterToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 favorite (try %d), got %d body=%s", i, st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/me/favorites", adopterToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my favorites, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 favorite, got %d body=%s", len(items), string(body))
		}
	}

	// 4) Dos solicitudes de adopción
	reqID := createAdoptionRequest(t, ts.URL, adopterToken, petID, "me encanta Milo")
	otherReqID := createAdoptionRequest(t, ts.URL, otherToken, petID, "")

	// La primera solicitud deja la publicación en pending
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d", st)
		}
		var p struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &p)
		if p.Status != "pending" {
			t.Fatalf("expected pet pending after first request, got %q", p.Status)
		}
	}

	// 5) Solo el owner ve las solicitudes de su publicación
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID+"/adoptions", adopterToken, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 listing requests as non-owner, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/adoptions", ownerToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing requests as owner, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 2 {
			t.Fatalf("expected 2 requests, got %d", len(items))
		}
	}

	// 6) Solo el owner puede aprobar
	{
		st, _ := doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", adopterToken, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve by non-owner, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", ownerToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status          string `json:"status"`
			RequesterUserID string `json:"requester_user_id"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "approved" || resp.RequesterUserID != adopterID {
			t.Fatalf("unexpected approved request: %s", string(body))
		}
	}

	// 7) Aprobar marca la mascota como adoptada y rechaza la otra pending
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d", st)
		}
		var p struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &p)
		if p.Status != "adopted" {
			t.Fatalf("expected pet adopted after approve, got %q", p.Status)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/me/adoptions", otherToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my adoptions, got %d", st)
		}
		var items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != otherReqID || items[0].Status != "rejected" {
			t.Fatalf("expected other request auto-rejected, body=%s", string(body))
		}
	}

	// 8) Una nueva solicitud sobre mascota adoptada => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/adoptions", otherToken, map[string]any{})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 requesting adopted pet, got %d", st)
		}
	}
}

func TestHTTP_Auth_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// register => 201 + sesión
	st, body := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"email":        "ana@example.com",
		"password":     "supersecret",
		"display_name": "Ana",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}
	var sess struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	_ = json.Unmarshal(body, &sess)
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatalf("register: missing tokens body=%s", string(body))
	}

	// email duplicado => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
			"email":    "ana@example.com",
			"password": "supersecret",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate email, got %d", st)
		}
	}

	// /auth/me con el access token
	{
		st, body := doReq(t, ts.URL, "GET", "/auth/me", sess.AccessToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 me, got %d body=%s", st, string(body))
		}
		var me struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(body, &me)
		if me.Email != "ana@example.com" {
			t.Fatalf("unexpected me: %s", string(body))
		}
	}

	// password incorrecto => 401
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
			"email":    "ana@example.com",
			"password": "wrongpassword",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 bad password, got %d", st)
		}
	}

	// refresh rota: el nuevo par sirve, el viejo refresh muere
	var rotated struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/refresh", "", map[string]any{
			"refresh_token": sess.RefreshToken,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 refresh, got %d body=%s", st, string(body))
		}
		_ = json.Unmarshal(body, &rotated)
		if rotated.RefreshToken == "" || rotated.RefreshToken == sess.RefreshToken {
			t.Fatalf("expected rotated refresh token, body=%s", string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/refresh", "", map[string]any{
			"refresh_token": sess.RefreshToken,
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 reusing old refresh, got %d", st)
		}
	}

	// logout revoca; repetirlo sigue siendo 204
	for i := 0; i < 2; i++ {
		st, _ := doReq(t, ts.URL, "POST", "/auth/logout", "", map[string]any{
			"refresh_token": rotated.RefreshToken,
		})
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 logout (try %d), got %d", i, st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/refresh", "", map[string]any{
			"refresh_token": rotated.RefreshToken,
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 refresh after logout, got %d", st)
		}
	}
}

func TestHTTP_Pets_FeedDefaultsToAvailable(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := register(t, ts.URL, "owner@example.com")

	availableID := createPet(t, ts.URL, ownerToken, map[string]any{
		"name": "Luna", "species": "cat", "size": "small",
	})
	adoptedID := createPet(t, ts.URL, ownerToken, map[string]any{
		"name": "Rocky", "species": "dog", "size": "large",
	})

	// marcar uno como adoptado vía PATCH del owner
	{
		st, body := doReq(t, ts.URL, "PATCH", "/pets/"+adoptedID, ownerToken, map[string]any{
			"status": "adopted",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch status, got %d body=%s", st, string(body))
		}
	}

	ids := func(body []byte) []string {
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	// default: solo available
	{
		st, body := doReq(t, ts.URL, "GET", "/pets", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 feed, got %d", st)
		}
		got := ids(body)
		if len(got) != 1 || got[0] != availableID {
			t.Fatalf("expected only available pet, got %v", got)
		}
	}

	// status=all: ambos
	{
		st, body := doReq(t, ts.URL, "GET", "/pets?status=all", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 feed all, got %d", st)
		}
		if got := ids(body); len(got) != 2 {
			t.Fatalf("expected 2 pets with status=all, got %v", got)
		}
	}

	// filtro inválido => 400
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets?species=bird", "", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 unknown species, got %d", st)
		}
	}
}

func TestHTTP_Pets_PatchRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := register(t, ts.URL, "owner@example.com")
	petID := createPet(t, ts.URL, ownerToken, map[string]any{
		"name": "Milo", "species": "dog", "size": "medium",
	})

	st, body := doReq(t, ts.URL, "PATCH", "/pets/"+petID, ownerToken, map[string]any{
		"nombre": "Firulais",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown patch field, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Realtime_SSEReceivesPetInsert(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := register(t, ts.URL, "owner@example.com")

	req, err := http.NewRequest("GET", ts.URL+"/realtime?tables=pets", nil)
	if err != nil {
		t.Fatalf("new sse request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open sse stream: %v", err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	// el stream abre con un comentario de suscripción
	waitForPrefix(t, lines, ": subscribed")

	createPet(t, ts.URL, ownerToken, map[string]any{
		"name": "Milo", "species": "dog", "size": "medium",
	})

	waitForLine(t, lines, "event: INSERT")
	data := waitForPrefix(t, lines, "data: ")

	var ev struct {
		Table  string         `json:"table"`
		Record map[string]any `json:"record"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &ev); err != nil {
		t.Fatalf("unmarshal event data: %v (%s)", err, data)
	}
	if ev.Table != "pets" || ev.Record["name"] != "Milo" {
		t.Fatalf("unexpected event: %s", data)
	}
}

// El server de producción corre con WriteTimeout; el stream SSE tiene que
// seguir entregando eventos publicados después de vencido ese deadline.
func TestHTTP_Realtime_SSEOutlivesServerWriteTimeout(t *testing.T) {
	issuer, err := token.NewIssuer("pet-adoption-test", "test-secret-0123456789abcdef", 15*time.Minute)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	ts := httptest.NewUnstartedServer(router.NewRouter(router.Options{
		AuthVerifier: tokenverifier.NewVerifier(issuer),
		Issuer:       issuer,
	}))
	ts.Config.WriteTimeout = 300 * time.Millisecond
	ts.Start()
	t.Cleanup(ts.Close)

	ownerToken, _ := register(t, ts.URL, "owner@example.com")

	req, err := http.NewRequest("GET", ts.URL+"/realtime?tables=pets", nil)
	if err != nil {
		t.Fatalf("new sse request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open sse stream: %v", err)
	}
	defer res.Body.Close()

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitForPrefix(t, lines, ": subscribed")

	// dejar vencer el write deadline global antes de publicar
	time.Sleep(600 * time.Millisecond)

	createPet(t, ts.URL, ownerToken, map[string]any{
		"name": "Luna", "species": "cat", "size": "small",
	})

	waitForLine(t, lines, "event: INSERT")
}

func waitForLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	waitFor(t, lines, func(l string) bool { return l == want }, want)
}

func waitForPrefix(t *testing.T, lines <-chan string, prefix string) string {
	t.Helper()
	return waitFor(t, lines, func(l string) bool { return strings.HasPrefix(l, prefix) }, prefix)
}

func waitFor(t *testing.T, lines <-chan string, match func(string) bool, want string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatalf("sse stream closed waiting for %q", want)
			}
			if match(l) {
				return l
			}
		case <-deadline:
			t.Fatalf("timeout waiting for sse line %q", want)
		}
	}
}

func register(t *testing.T, baseURL, email string) (accessToken, userID string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/register", "", map[string]any{
		"email":    email,
		"password": "supersecret",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register %s, got %d body=%s", email, st, string(body))
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.AccessToken == "" || resp.User.ID == "" {
		t.Fatalf("register %s: missing session body=%s", email, string(body))
	}
	return resp.AccessToken, resp.User.ID
}

func createPet(t *testing.T, baseURL, accessToken string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", accessToken, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func createAdoptionRequest(t *testing.T, baseURL, accessToken, petID, message string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/adoptions", accessToken, map[string]any{
		"message": message,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 adoption request, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("adoption request: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, accessToken string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
