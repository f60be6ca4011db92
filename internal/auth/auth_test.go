package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-analytics/internal/config"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

const secret = "0123456789abcdef0123456789abcdef"

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	database.DB = db

	cfg := &config.Config{JWTSecret: secret}
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Post("/register", RegisterAdminHandler(cfg))
	app.Post("/login", LoginHandler(cfg))
	protected := app.Group("", JWTMiddleware(cfg))
	protected.Get("/me", MeHandler())
	protected.Post("/users", RequireRole(models.RoleAdmin), CreateUserHandler())
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	code, out := call(t, app, "POST", "/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if code != fiber.StatusOK {
		t.Fatalf("login %s: status = %d (%v)", email, code, out)
	}
	token, _ := out["token"].(string)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	app := newApp(t)

	if code, _ := call(t, app, "POST", "/register", "", `{"name":"Dueña","email":"A@Tienda.mx","password":"corta"}`); code != fiber.StatusBadRequest {
		t.Errorf("short password status = %d", code)
	}
	if code, out := call(t, app, "POST", "/register", "", `{"name":"Dueña","email":"A@Tienda.mx","password":"secreta123"}`); code != fiber.StatusCreated {
		t.Fatalf("register status = %d (%v)", code, out)
	}
	if code, _ := call(t, app, "POST", "/register", "", `{"name":"Otro","email":"b@tienda.mx","password":"secreta123"}`); code != fiber.StatusForbidden {
		t.Errorf("second admin status = %d", code)
	}

	if code, _ := call(t, app, "POST", "/login", "", `{"email":"a@tienda.mx","password":"incorrecta"}`); code != fiber.StatusUnauthorized {
		t.Errorf("wrong password status = %d", code)
	}
	token := login(t, app, "a@tienda.mx", "secreta123")

	code, me := call(t, app, "GET", "/me", token, "")
	if code != fiber.StatusOK || me["email"] != "a@tienda.mx" || me["role"] != "admin" {
		t.Errorf("me = %d %v", code, me)
	}
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp(t)
	cases := map[string]string{
		"missing": "",
		"garbage": "no-es-un-token",
	}
	for name, token := range cases {
		if code, _ := call(t, app, "GET", "/me", token, ""); code != fiber.StatusUnauthorized {
			t.Errorf("%s: status = %d", name, code)
		}
	}

	forged, err := GenerateToken("otro-secreto-otro-secreto-otro-secreto", &models.User{ID: 1, Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if code, _ := call(t, app, "GET", "/me", forged, ""); code != fiber.StatusUnauthorized {
		t.Errorf("foreign signature status = %d", code)
	}
}

func TestRequireRole(t *testing.T) {
	app := newApp(t)
	call(t, app, "POST", "/register", "", `{"name":"Dueña","email":"a@tienda.mx","password":"secreta123"}`)
	admin := login(t, app, "a@tienda.mx", "secreta123")

	code, out := call(t, app, "POST", "/users", admin, `{"name":"Caja","email":"caja@tienda.mx","password":"cajero123"}`)
	if code != fiber.StatusCreated || out["role"] != "cashier" {
		t.Fatalf("create cashier = %d %v", code, out)
	}

	cashier := login(t, app, "caja@tienda.mx", "cajero123")
	if code, _ := call(t, app, "POST", "/users", cashier, `{"name":"X","email":"x@tienda.mx","password":"cajero123"}`); code != fiber.StatusForbidden {
		t.Errorf("cashier creating users status = %d", code)
	}
}
