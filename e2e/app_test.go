package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type expense struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

type expenseResponse struct {
	Message string  `json:"message"`
	Expense expense `json:"expense"`
}

// E2ETestSuite exercises the running server over HTTP
type E2ETestSuite struct {
	suite.Suite
	pw  *playwright.Playwright
	api playwright.APIRequestContext
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	api, err := pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.api = api
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.api != nil {
		suite.api.Dispose()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (suite *E2ETestSuite) login(email, password string) string {
	resp, err := suite.api.Post("/api/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"email": email, "password": password},
	})
	require.NoError(suite.T(), err, "login request failed")
	require.Equal(suite.T(), http.StatusOK, resp.Status(), "login rejected")

	var body struct {
		AccessToken string `json:"access_token"`
		Message     string `json:"message"`
	}
	require.NoError(suite.T(), resp.JSON(&body))
	assert.Equal(suite.T(), "Login successful", body.Message)
	require.NotEmpty(suite.T(), body.AccessToken)
	return body.AccessToken
}

func (suite *E2ETestSuite) TestSeededAdminCanLogIn() {
	suite.login(adminEmail, adminPassword)
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	email := fmt.Sprintf("user-%d@example.com", time.Now().UnixNano())

	// Register
	resp, err := suite.api.Post("/api/register", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"email": email, "password": "pw123"},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusCreated, resp.Status())

	// Registering twice conflicts
	resp, err = suite.api.Post("/api/register", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"email": email, "password": "pw123"},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusConflict, resp.Status())

	token := suite.login(email, "pw123")

	// Listing without a token is rejected
	resp, err = suite.api.Get("/api/expenses")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.Status())

	// Create Expense
	resp, err = suite.api.Post("/api/expenses", playwright.APIRequestContextPostOptions{
		Data:    map[string]any{"title": "Lunch Test", "amount": 12.5},
		Headers: bearer(token),
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusCreated, resp.Status())

	var created expenseResponse
	require.NoError(suite.T(), resp.JSON(&created))
	assert.Equal(suite.T(), "Expense added", created.Message)
	assert.Equal(suite.T(), "Lunch Test", created.Expense.Title)
	path := fmt.Sprintf("/api/expenses/%d", created.Expense.ID)

	// Update amount only
	resp, err = suite.api.Put(path, playwright.APIRequestContextPutOptions{
		Data: map[string]any{"amount": 15},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())

	var updated expenseResponse
	require.NoError(suite.T(), resp.JSON(&updated))
	assert.Equal(suite.T(), "Lunch Test", updated.Expense.Title)
	assert.Equal(suite.T(), 15.0, updated.Expense.Amount)

	// Verify in List
	resp, err = suite.api.Get("/api/expenses", playwright.APIRequestContextGetOptions{
		Headers: bearer(token),
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())

	var list []expense
	require.NoError(suite.T(), resp.JSON(&list))
	assert.Contains(suite.T(), list, updated.Expense)

	// Delete, then it is gone
	resp, err = suite.api.Delete(path)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())

	resp, err = suite.api.Get(path)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNotFound, resp.Status())
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
