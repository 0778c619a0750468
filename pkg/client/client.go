package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"rescueplate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 15 * time.Second

// ErrNotSignedIn is returned by calls that need a session when there is none.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	// Fields holds per-field validation messages, if any.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.StatusCode, strings.Join(parts, "; "))
}

// AuthResponse is the body of a successful register or login.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Client talks to the RescuePlate API on behalf of one session.
type Client struct {
	baseURL string
	session *Session
	timeout time.Duration
}

// New creates a Client for the API at baseURL.
func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		timeout: DefaultTimeout,
	}
}

// Session returns the session the client signs requests with.
func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and signs the session in as the new user.
func (c *Client) Register(name, email, password string, role models.Role) (*models.User, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	return c.authenticate("/auth/register", body)
}

// Login signs the session in.
func (c *Client) Login(email, password string) (*models.User, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.authenticate("/auth/login", body)
}

// Logout signs the session out. Tokens are stateless so the server is not contacted.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) authenticate(path string, body interface{}) (*models.User, error) {
	var resp AuthResponse
	if err := c.do(fiber.MethodPost, path, body, false, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("malformed auth response from %s", path)
	}
	if err := c.session.Save(resp.AccessToken, resp.User); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return resp.User, nil
}

// Listings returns every listing. Failures are logged and yield an empty list.
func (c *Client) Listings() []models.Listing {
	listings := make([]models.Listing, 0)
	if err := c.do(fiber.MethodGet, "/listings", nil, false, &listings); err != nil {
		log.Printf("Error fetching listings: %v", err)
		return make([]models.Listing, 0)
	}
	return listings
}

// MyListings returns the signed-in vendor's listings.
func (c *Client) MyListings() ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	if err := c.do(fiber.MethodGet, "/listings/my-listings", nil, true, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Listing returns one listing.
func (c *Client) Listing(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := c.do(fiber.MethodGet, "/listings/"+url.PathEscape(id), nil, false, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// CreateListing posts a new listing owned by the signed-in vendor.
func (c *Client) CreateListing(input models.CreateListingInput) (*models.Listing, error) {
	var listing models.Listing
	if err := c.do(fiber.MethodPost, "/listings", input, true, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// UpdateListing sends a partial update; nil fields are left alone.
func (c *Client) UpdateListing(id string, patch models.UpdateListingInput) (*models.Listing, error) {
	var listing models.Listing
	if err := c.do(fiber.MethodPatch, "/listings/"+url.PathEscape(id), patch, true, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// DeleteListing removes one of the signed-in vendor's listings.
func (c *Client) DeleteListing(id string) error {
	return c.do(fiber.MethodDelete, "/listings/"+url.PathEscape(id), nil, true, nil)
}

// do sends one request and decodes a 2xx JSON answer into out.
func (c *Client) do(method, path string, body interface{}, auth bool, out interface{}) error {
	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(c.timeout)

	if auth {
		token := c.session.Token()
		if token == "" {
			fiber.ReleaseAgent(agent)
			return ErrNotSignedIn
		}
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}

	// Bytes releases the agent.
	code, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request %s %s failed: %w", method, path, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return decodeAPIError(code, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(code int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: code}

	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Errors
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = fiber.NewError(code).Message
	}
	return apiErr
}
