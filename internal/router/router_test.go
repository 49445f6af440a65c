package router_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"vet-clinic/internal/platform/config"
	"vet-clinic/internal/router"
)

func testConfig() config.Config {
	return config.Config{
		Port:          "0",
		AppName:       "vet-clinic-test",
		AdminEmail:    "admin@vetclinic.com",
		AdminPassword: "Admin123!",
		SessionTTL:    24 * time.Hour,
		RememberTTL:   30 * 24 * time.Hour,
		ResetTokenTTL: 2 * time.Hour,
	}
}

// testClient maneja cookies (sesión + CSRF) como lo haría un browser,
// pero pide respuestas JSON para poder asertar sobre el body.
type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, base string) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testClient{
		t:    t,
		base: base,
		http: &http.Client{Jar: jar},
	}
}

func (c *testClient) csrfToken() string {
	c.t.Helper()
	u, _ := url.Parse(c.base)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == "vc_csrf" {
			return ck.Value
		}
	}
	// un GET cualquiera siembra la cookie
	c.get("/account/login")
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == "vc_csrf" {
			return ck.Value
		}
	}
	c.t.Fatal("no csrf cookie after GET")
	return ""
}

func (c *testClient) get(path string) (int, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *testClient) postForm(path string, form url.Values) (int, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-Token", c.csrfToken())
	return c.do(req)
}

func (c *testClient) do(req *http.Request) (int, []byte) {
	c.t.Helper()
	res, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, body
}

func decode(t *testing.T, body []byte, into any) {
	t.Helper()
	if err := json.Unmarshal(body, into); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

type managePetsResponse struct {
	OwnersWithPets []struct {
		OwnerID    string `json:"owner_id"`
		OwnerName  string `json:"owner_name"`
		OwnerEmail string `json:"owner_email"`
		Pets       []struct {
			PetID      int64  `json:"pet_id"`
			Name       string `json:"name"`
			Age        int    `json:"age"`
			AnimalType string `json:"animal_type"`
		} `json:"pets"`
	} `json:"owners_with_pets"`
}

type profileBody struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       *int   `json:"age"`
	Pets      []struct {
		PetID    int64  `json:"pet_id"`
		Name     string `json:"name"`
		Vaccines []struct {
			VaccineID        int64     `json:"vaccine_id"`
			Name             string    `json:"name"`
			DateAdministered time.Time `json:"date_administered"`
		} `json:"vaccines"`
	} `json:"pets"`
}

func TestHTTP_EndToEnd_OwnerAndAdminFlows(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Cfg: testConfig()}))
	defer ts.Close()

	owner := newTestClient(t, ts.URL)
	admin := newTestClient(t, ts.URL)

	// 0) health
	{
		st, _ := owner.get("/health")
		if st != http.StatusOK {
			t.Fatalf("expected 200 health, got %d", st)
		}
	}

	// 1) Owner se registra (25 años) y queda logueado
	{
		dob := time.Now().UTC().AddDate(-25, 0, -1).Format("2006-01-02")
		st, body := owner.postForm("/account/register", url.Values{
			"email":            {"ana@example.com"},
			"password":         {"Passw0rd1"},
			"confirm_password": {"Passw0rd1"},
			"first_name":       {"Ana"},
			"last_name":        {"García"},
			"date_of_birth":    {dob},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 register, got %d body=%s", st, string(body))
		}
	}

	// 2) Perfil: datos propios, sin mascotas aún
	{
		st, body := owner.get("/account/profile")
		if st != http.StatusOK {
			t.Fatalf("expected 200 profile, got %d body=%s", st, string(body))
		}
		var p profileBody
		decode(t, body, &p)
		if p.FirstName != "Ana" || p.Email != "ana@example.com" {
			t.Fatalf("unexpected profile %+v", p)
		}
		if p.Age == nil || *p.Age != 25 {
			t.Fatalf("expected age 25, got %v", p.Age)
		}
		if len(p.Pets) != 0 {
			t.Fatalf("expected no pets, got %d", len(p.Pets))
		}
	}

	// 3) El owner común no entra al área admin
	{
		st, _ := owner.get("/admin/managepets")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin, got %d", st)
		}
		st, _ = owner.postForm("/admin/createvaccine", url.Values{"name": {"Rabies"}})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin write, got %d", st)
		}
	}

	// 4) Login de la cuenta admin sembrada
	{
		st, body := admin.postForm("/account/login", url.Values{
			"email":    {"admin@vetclinic.com"},
			"password": {"Admin123!"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 admin login, got %d body=%s", st, string(body))
		}
	}

	// 5) Admin ubica al owner en el listado
	var ownerID string
	{
		st, body := admin.get("/admin/managepets")
		if st != http.StatusOK {
			t.Fatalf("expected 200 managepets, got %d body=%s", st, string(body))
		}
		var mp managePetsResponse
		decode(t, body, &mp)
		for _, row := range mp.OwnersWithPets {
			if row.OwnerEmail == "ana@example.com" {
				ownerID = row.OwnerID
			}
		}
		if ownerID == "" {
			t.Fatalf("owner not listed: %s", string(body))
		}
	}

	// 6) Admin crea una mascota para el owner
	{
		st, body := admin.postForm("/admin/createpet", url.Values{
			"owner_id":    {ownerID},
			"name":        {"Rex"},
			"age":         {"3"},
			"animal_type": {"Dog"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 createpet, got %d body=%s", st, string(body))
		}
	}

	var petID int64
	{
		_, body := admin.get("/admin/managepets")
		var mp managePetsResponse
		decode(t, body, &mp)
		for _, row := range mp.OwnersWithPets {
			for _, p := range row.Pets {
				if p.Name == "Rex" {
					petID = p.PetID
				}
			}
		}
		if petID == 0 {
			t.Fatalf("pet not listed: %s", string(body))
		}
	}

	// 7) Vacuna nueva por nombre; la fecha por defecto es ahora
	before := time.Now().UTC()
	{
		st, body := admin.postForm("/admin/addvaccinetopet", url.Values{
			"pet_id":           {strconv.FormatInt(petID, 10)},
			"new_vaccine_name": {"Rabies"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 addvaccinetopet, got %d body=%s", st, string(body))
		}
	}

	// 8) El perfil del owner ya muestra la mascota vacunada
	{
		st, body := owner.get("/account/profile")
		if st != http.StatusOK {
			t.Fatalf("expected 200 profile, got %d body=%s", st, string(body))
		}
		var p profileBody
		decode(t, body, &p)
		if len(p.Pets) != 1 || p.Pets[0].Name != "Rex" {
			t.Fatalf("expected pet Rex in profile, got %s", string(body))
		}
		vs := p.Pets[0].Vaccines
		if len(vs) != 1 || vs[0].Name != "Rabies" {
			t.Fatalf("expected vaccine Rabies, got %s", string(body))
		}
		if vs[0].DateAdministered.Before(before.Add(-time.Minute)) {
			t.Fatalf("administered date too old: %v", vs[0].DateAdministered)
		}
	}

	// 9) Edición de perfil inválida: 400 con el listado de mascotas
	// recalculado, nunca vacío ni viejo
	{
		st, body := owner.postForm("/account/profile", url.Values{
			"first_name":    {"Ana"},
			"last_name":     {"García"},
			"date_of_birth": {"not-a-date"},
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid dob, got %d body=%s", st, string(body))
		}
		var rerender struct {
			Errors map[string][]string `json:"errors"`
			Pets   []struct {
				Name string `json:"name"`
			} `json:"pets"`
		}
		decode(t, body, &rerender)
		if len(rerender.Errors["date_of_birth"]) == 0 {
			t.Fatalf("expected date_of_birth error, got %s", string(body))
		}
		if len(rerender.Pets) != 1 || rerender.Pets[0].Name != "Rex" {
			t.Fatalf("re-render must list current pets, got %s", string(body))
		}
	}

	// 10) Búsqueda por tipo de animal, case-insensitive
	{
		_, body := admin.get("/admin/managepets?searchTerm=dog")
		var mp managePetsResponse
		decode(t, body, &mp)
		if len(mp.OwnersWithPets) != 1 || mp.OwnersWithPets[0].OwnerEmail != "ana@example.com" {
			t.Fatalf("expected only Ana for 'dog', got %s", string(body))
		}

		_, body = admin.get("/admin/managepets?searchTerm=zzz")
		decode(t, body, &mp)
		if len(mp.OwnersWithPets) != 0 {
			t.Fatalf("expected empty result for 'zzz', got %s", string(body))
		}
	}

	// 11) La vacuna en uso no se borra; tras desasociar, sí
	var vaccineID int64
	{
		_, body := admin.get("/admin/managevaccines")
		var mv struct {
			Vaccines []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"vaccines"`
		}
		decode(t, body, &mv)
		for _, v := range mv.Vaccines {
			if v.Name == "Rabies" {
				vaccineID = v.ID
			}
		}
		if vaccineID == 0 {
			t.Fatalf("vaccine not listed: %s", string(body))
		}

		st, body := admin.postForm("/admin/deletevaccine/"+strconv.FormatInt(vaccineID, 10), url.Values{})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 deleting in-use vaccine, got %d body=%s", st, string(body))
		}

		st, body = admin.postForm("/admin/removevaccinefrompet", url.Values{
			"pet_id":     {strconv.FormatInt(petID, 10)},
			"vaccine_id": {strconv.FormatInt(vaccineID, 10)},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 removevaccinefrompet, got %d body=%s", st, string(body))
		}

		st, body = admin.postForm("/admin/deletevaccine/"+strconv.FormatInt(vaccineID, 10), url.Values{})
		if st != http.StatusOK {
			t.Fatalf("expected 200 deleting detached vaccine, got %d body=%s", st, string(body))
		}
	}

	// 12) Borrado del owner en cascada: mascota incluida
	{
		st, body := admin.postForm("/admin/deleteowner/"+ownerID, url.Values{})
		if st != http.StatusOK {
			t.Fatalf("expected 200 deleteowner, got %d body=%s", st, string(body))
		}

		_, body = admin.get("/admin/managepets")
		var mp managePetsResponse
		decode(t, body, &mp)
		for _, row := range mp.OwnersWithPets {
			if row.OwnerEmail == "ana@example.com" {
				t.Fatalf("owner still listed after delete: %s", string(body))
			}
			for _, p := range row.Pets {
				if p.Name == "Rex" {
					t.Fatalf("pet still listed after owner delete: %s", string(body))
				}
			}
		}

		// la sesión del owner borrado quedó revocada
		st, _ = owner.get("/account/profile")
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 for deleted owner session, got %d", st)
		}
	}
}

func TestHTTP_CSRFRejectsMissingToken(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Cfg: testConfig()}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	c.get("/account/login") // siembra cookie CSRF

	form := url.Values{"email": {"x@example.com"}, "password": {"Passw0rd1"}}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/account/login", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// sin header ni campo csrf_token

	res, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without csrf token, got %d", res.StatusCode)
	}
}

func TestHTTP_CSRFSessionTokenRequired(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Cfg: testConfig()}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	dob := time.Now().UTC().AddDate(-28, 0, -1).Format("2006-01-02")
	st, body := c.postForm("/account/register", url.Values{
		"email":            {"eva@example.com"},
		"password":         {"Passw0rd1"},
		"confirm_password": {"Passw0rd1"},
		"first_name":       {"Eva"},
		"last_name":        {"Moreno"},
		"date_of_birth":    {dob},
	})
	if st != http.StatusOK {
		t.Fatalf("register failed: %d %s", st, string(body))
	}

	// par cookie+header fabricado por el cliente: con sesión activa
	// el token esperado es el de la sesión, no la cookie
	u, _ := url.Parse(ts.URL)
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: "vc_csrf", Value: "fabricated-token"}})

	form := url.Values{"first_name": {"Eva"}, "last_name": {"Moreno"}}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/account/profile", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-Token", "fabricated-token")

	res, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 with fabricated token pair, got %d", res.StatusCode)
	}

	// un GET rota la cookie al token real de la sesión y el POST pasa
	c.get("/account/profile")
	st, body = c.postForm("/account/profile", url.Values{
		"first_name": {"Eva"},
		"last_name":  {"Moreno"},
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 with session token, got %d body=%s", st, string(body))
	}
}

func TestHTTP_LoginGenericError(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Cfg: testConfig()}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	// email inexistente y password incorrecto responden igual
	st1, body1 := c.postForm("/account/login", url.Values{
		"email":    {"nadie@example.com"},
		"password": {"Passw0rd1"},
	})
	st2, body2 := c.postForm("/account/login", url.Values{
		"email":    {"admin@vetclinic.com"},
		"password": {"WrongPass1"},
	})
	if st1 != http.StatusUnauthorized || st2 != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", st1, st2)
	}
	if string(body1) != string(body2) {
		t.Fatalf("login errors must be indistinguishable: %s vs %s", body1, body2)
	}
}

func TestHTTP_PasswordResetFlow(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Cfg: testConfig()}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	// registro previo
	dob := time.Now().UTC().AddDate(-30, 0, -1).Format("2006-01-02")
	st, body := c.postForm("/account/register", url.Values{
		"email":            {"leo@example.com"},
		"password":         {"Passw0rd1"},
		"confirm_password": {"Passw0rd1"},
		"first_name":       {"Leo"},
		"last_name":        {"Pérez"},
		"date_of_birth":    {dob},
	})
	if st != http.StatusOK {
		t.Fatalf("register failed: %d %s", st, string(body))
	}

	// forgot responde igual exista o no el email
	st1, body1 := c.postForm("/account/forgotpassword", url.Values{"email": {"leo@example.com"}})
	st2, body2 := c.postForm("/account/forgotpassword", url.Values{"email": {"nadie@example.com"}})
	if st1 != http.StatusOK || st2 != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", st1, st2)
	}
	if string(body1) != string(body2) {
		t.Fatalf("forgot responses must be indistinguishable: %s vs %s", body1, body2)
	}

	// el form de reset exige code
	st, _ = c.get("/account/resetpassword")
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 without code, got %d", st)
	}

	// un code inventado no pasa
	st, body = c.postForm("/account/resetpassword", url.Values{
		"email":            {"leo@example.com"},
		"code":             {"not-a-real-token"},
		"password":         {"NewPassw0rd1"},
		"confirm_password": {"NewPassw0rd1"},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 with bogus code, got %d body=%s", st, string(body))
	}
}
