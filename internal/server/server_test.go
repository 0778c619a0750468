package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"rescueplate/internal/database"
	"rescueplate/internal/models"
	"rescueplate/internal/server"
	"rescueplate/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingPublisher keeps the events it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ListingEvent
}

func (p *recordingPublisher) PublishListingEvent(event models.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// setupApp builds the app over a fresh in-memory SQLite database.
func setupApp(t *testing.T) (*fiber.App, *recordingPublisher) {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	stores, err := database.NewGORMStores(db, true)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	publisher := &recordingPublisher{}
	app := server.NewApp(server.Options{
		AuthService:    services.NewAuthService(stores.Users, "test_jwt_secret", time.Hour),
		ListingService: services.NewListingService(stores.Listings, publisher),
		DisableLogger:  true,
	})
	return app, publisher
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registerUser(t *testing.T, app *fiber.App, name, email string, role models.Role) string {
	t.Helper()
	resp, data := doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "role": string(role),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var auth struct {
		AccessToken string      `json:"access_token"`
		User        models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func TestHealth(t *testing.T) {
	app, _ := setupApp(t)

	resp, data := doRequest(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"success","message":"RescuePlate API is running"}`, string(data))
}

func TestUnknownRoute(t *testing.T) {
	app, _ := setupApp(t)

	resp, data := doRequest(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(data), `"message"`)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	body := map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "password123", "role": "CUSTOMER",
	}
	resp, data := doRequest(t, app, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(data), `"access_token"`)
	assert.NotContains(t, string(data), "password123")
	assert.NotContains(t, string(data), `"password"`)

	// Test Duplicate Registration
	resp, _ = doRequest(t, app, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Test Invalid Registration
	resp, data = doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "X", "email": "bad", "password": "1", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var validation struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &validation))
	assert.Contains(t, validation.Errors, "email")
	assert.Contains(t, validation.Errors, "password")
	assert.Contains(t, validation.Errors, "role")

	// Test Login
	resp, data = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &login))
	assert.NotEmpty(t, login["access_token"])
	user := login["user"].(map[string]interface{})
	assert.Equal(t, "CUSTOMER", user["role"])

	// Test Wrong Password
	resp, data = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotContains(t, string(data), "access_token")

	// Test Missing Fields: keys match the JSON names used by register
	resp, data = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	validation.Errors = nil
	require.NoError(t, json.Unmarshal(data, &validation))
	assert.Equal(t, map[string]string{"password": "Field 'password' failed on the 'required' tag"}, validation.Errors)
}

func TestListingEndpointsWithoutAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp, data := doRequest(t, app, http.MethodGet, "/listings", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))

	resp, _ = doRequest(t, app, http.MethodPost, "/listings", "", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/listings/my-listings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPatch, "/listings/some-id", "", map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/listings/some-id", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCustomerCannotWriteListings(t *testing.T) {
	app, _ := setupApp(t)
	token := registerUser(t, app, "Jane", "jane@example.com", models.RoleCustomer)

	resp, _ := doRequest(t, app, http.MethodPost, "/listings", token, pizzaBody())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/listings/my-listings", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func pizzaBody() map[string]interface{} {
	return map[string]interface{}{
		"title":         "5 Large Pizzas",
		"description":   "Unsold pizzas from tonight",
		"price":         12.99,
		"originalPrice": 45.00,
		"category":      "HUMAN",
		"quantity":      "5 boxes",
		"pickupTime":    "Today 9-10 PM",
		// Ignored: ownership comes from the token.
		"vendorId": "someone-else",
	}
}

func TestListingLifecycle(t *testing.T) {
	app, publisher := setupApp(t)

	mario := registerUser(t, app, "Mario's Pizzeria", "mario@example.com", models.RoleVendor)
	luigi := registerUser(t, app, "Luigi's Deli", "luigi@example.com", models.RoleVendor)

	// Create
	resp, data := doRequest(t, app, http.MethodPost, "/listings", mario, pizzaBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created models.Listing
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotEmpty(t, created.ID)
	assert.NotEqual(t, "someone-else", created.VendorID)

	// Invalid create
	bad := pizzaBody()
	bad["price"] = 0
	resp, _ = doRequest(t, app, http.MethodPost, "/listings", mario, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Public list resolves the vendor
	resp, data = doRequest(t, app, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Listing
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "5 Large Pizzas", all[0].Title)
	require.NotNil(t, all[0].Vendor)
	assert.Equal(t, "Mario's Pizzeria", all[0].Vendor.Name)

	// Dashboard shows only the caller's listings
	resp, data = doRequest(t, app, http.MethodGet, "/listings/my-listings", mario, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []models.Listing
	require.NoError(t, json.Unmarshal(data, &mine))
	assert.Len(t, mine, 1)

	resp, data = doRequest(t, app, http.MethodGet, "/listings/my-listings", luigi, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))

	// Owner updates the price
	path := fmt.Sprintf("/listings/%s", created.ID)
	resp, data = doRequest(t, app, http.MethodPatch, path, mario, map[string]interface{}{"price": 9.99})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = doRequest(t, app, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Listing
	require.NoError(t, json.Unmarshal(data, &fetched))
	assert.Equal(t, 9.99, fetched.Price)
	assert.Equal(t, "5 Large Pizzas", fetched.Title)

	// An explicit null drops the original price
	resp, data = doRequest(t, app, http.MethodPatch, path, mario, map[string]interface{}{"originalPrice": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	resp, data = doRequest(t, app, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched = models.Listing{}
	require.NoError(t, json.Unmarshal(data, &fetched))
	assert.Nil(t, fetched.OriginalPrice)
	assert.Equal(t, 9.99, fetched.Price)

	// Another vendor cannot touch it
	resp, _ = doRequest(t, app, http.MethodPatch, path, luigi, map[string]interface{}{"title": "Mine"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodDelete, path, luigi, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner deletes it
	resp, data = doRequest(t, app, http.MethodDelete, path, mario, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Listing deleted successfully"}`, string(data))

	resp, _ = doRequest(t, app, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodPatch, path, mario, map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodDelete, path, mario, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, []string{
		models.EventListingCreated,
		models.EventListingUpdated,
		models.EventListingUpdated,
		models.EventListingDeleted,
	}, publisher.types())
}

func TestInvalidBody(t *testing.T) {
	app, _ := setupApp(t)
	token := registerUser(t, app, "Mario", "mario@example.com", models.RoleVendor)

	req := httptest.NewRequest(http.MethodPost, "/listings", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
