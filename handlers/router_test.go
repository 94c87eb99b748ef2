package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"snack-gateway/auth"
	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/consumer"
	"snack-gateway/ephemeral"
	"snack-gateway/fakemarket"
	"snack-gateway/models"
	"snack-gateway/orders"
	"snack-gateway/review"
	"snack-gateway/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const (
	buyerEmail = "buyer@snack.co.kr"
	adminEmail = "admin@snack.co.kr"
	ownerEmail = "owner@snack.co.kr"
)

type RouterTestSuite struct {
	suite.Suite
	market  *fakemarket.Server
	gateway *httptest.Server
	tracker *consumer.ActivityTracker
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	suite.market = fakemarket.New().Start()
	market := clients.NewMarketClient(suite.market.URL(), 5*time.Second, logger)
	carts := cart.NewRegistry(market, logger, time.Hour)
	suite.tracker = consumer.NewActivityTracker(logger)

	router := NewRouter(Deps{
		Market:    market,
		Auth:      auth.NewService(market, auth.NewTokenStore(time.Hour), time.Minute, logger),
		Carts:     carts,
		Submitter: orders.NewSubmitter(market, ephemeral.NewMemoryStore(time.Minute), suite.tracker, logger),
		Reviewer:  review.NewReviewer(market, suite.tracker, logger),
		Tracker:   suite.tracker,
		Sessions:  session.NewManager("router-test-secret", time.Hour, false, logger),
		Logger:    logger,
	})
	suite.gateway = httptest.NewServer(router)
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.gateway.Close()
	suite.market.Close()
}

// browser is one cookie jar talking to the gateway.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (suite *RouterTestSuite) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(suite.T(), err)
	return &browser{t: suite.T(), base: suite.gateway.URL, client: &http.Client{Jar: jar}}
}

func (b *browser) do(method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, raw
}

func (b *browser) login(email string) {
	status, raw := b.do(http.MethodPost, "/api/auth/login", models.LoginRequest{Email: email, Password: fakemarket.DefaultPassword})
	require.Equal(b.t, http.StatusOK, status, string(raw))
}

func decode[T any](t *testing.T, raw []byte) T {
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (suite *RouterTestSuite) TestHealth() {
	status, raw := suite.browser().do(http.MethodGet, "/health", nil)
	assert.Equal(suite.T(), http.StatusOK, status)
	assert.JSONEq(suite.T(), `{"status":"OK"}`, string(raw))
}

func (suite *RouterTestSuite) TestLoginValidationReturnsFieldErrors() {
	status, raw := suite.browser().do(http.MethodPost, "/api/auth/login", models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Equal(suite.T(), http.StatusBadRequest, status)

	body := decode[models.ErrorResponse](suite.T(), raw)
	assert.Equal(suite.T(), CodeValidation, body.Error)
	assert.Contains(suite.T(), body.Fields, "email")
	assert.Contains(suite.T(), body.Fields, "password")
	assert.Zero(suite.T(), suite.market.Calls(http.MethodPost, "/auth/login"))
}

func (suite *RouterTestSuite) TestLoginWrongPassword() {
	status, raw := suite.browser().do(http.MethodPost, "/api/auth/login", models.LoginRequest{Email: buyerEmail, Password: "wrong-password1"})
	require.Equal(suite.T(), http.StatusUnauthorized, status)
	assert.Equal(suite.T(), "INVALID_CREDENTIALS", decode[models.ErrorResponse](suite.T(), raw).Error)
}

func (suite *RouterTestSuite) TestAnonymousIsUnauthorized() {
	status, raw := suite.browser().do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusUnauthorized, status)
	assert.Equal(suite.T(), CodeUnauthorized, decode[models.ErrorResponse](suite.T(), raw).Error)
}

func (suite *RouterTestSuite) TestCartAndOrderFlow() {
	suite.market.SeedCart(buyerEmail, map[string]int{"101": 1, "102": 2, "103": 1})
	b := suite.browser()
	b.login(buyerEmail)

	status, raw := b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusOK, status)
	cartBody := decode[models.CartResponse](suite.T(), raw)
	assert.True(suite.T(), cartBody.Loaded)
	assert.Equal(suite.T(), 4, cartBody.Count)

	status, raw = b.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: []string{"102", "101"}, Message: "탕비실"})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	submitted := decode[models.SubmitOrderResponse](suite.T(), raw)
	assert.Equal(suite.T(), int64(8500), submitted.PurchaseComplete.TotalAmount)
	assert.Equal(suite.T(), 3, submitted.PurchaseComplete.TotalQuantity)
	assert.Equal(suite.T(), "코카콜라 제로", submitted.PurchaseComplete.FirstProductTitle)
	require.Len(suite.T(), submitted.Cart, 1)
	assert.Equal(suite.T(), "103", submitted.Cart[0].ID)

	status, raw = b.do(http.MethodGet, "/api/orders/purchase-complete", nil)
	require.Equal(suite.T(), http.StatusOK, status)
	assert.Equal(suite.T(), int64(8500), decode[models.PurchaseComplete](suite.T(), raw).TotalAmount)

	status, _ = b.do(http.MethodGet, "/api/orders/purchase-complete", nil)
	assert.Equal(suite.T(), http.StatusNotFound, status)

	stats := suite.tracker.Snapshot()
	assert.Equal(suite.T(), int64(1), stats.Submitted)
	assert.Equal(suite.T(), int64(8500), stats.SubmittedValue)
}

func (suite *RouterTestSuite) TestSubmitNothingSelected() {
	b := suite.browser()
	b.login(buyerEmail)

	status, raw := b.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: nil})
	require.Equal(suite.T(), http.StatusBadRequest, status)
	assert.Equal(suite.T(), CodeInvalidInput, decode[models.ErrorResponse](suite.T(), raw).Error)
	assert.Zero(suite.T(), suite.market.Calls(http.MethodPost, "/orders"))
}

func (suite *RouterTestSuite) TestRemoveFailureStillChangesCart() {
	suite.market.SeedCart(buyerEmail, map[string]int{"101": 1, "102": 2})
	b := suite.browser()
	b.login(buyerEmail)
	status, _ := b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusOK, status)

	suite.market.FailNext(http.MethodDelete, "/cart/items/:id", http.StatusServiceUnavailable)
	status, raw := b.do(http.MethodDelete, "/api/cart/items/101", nil)
	require.Equal(suite.T(), http.StatusOK, status)

	body := decode[models.CartResponse](suite.T(), raw)
	assert.NotEmpty(suite.T(), body.Warning)
	require.Len(suite.T(), body.Items, 1)
	assert.Equal(suite.T(), "102", body.Items[0].ID)
}

func (suite *RouterTestSuite) TestExpiredTokenEndsSession() {
	b := suite.browser()
	b.login(buyerEmail)
	suite.market.RevokeAll()

	status, raw := b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusUnauthorized, status)
	assert.Equal(suite.T(), CodeSessionExpired, decode[models.ErrorResponse](suite.T(), raw).Error)

	status, raw = b.do(http.MethodGet, "/api/orders", nil)
	require.Equal(suite.T(), http.StatusUnauthorized, status)
	assert.Equal(suite.T(), CodeUnauthorized, decode[models.ErrorResponse](suite.T(), raw).Error)
}

func (suite *RouterTestSuite) TestLogoutClearsSession() {
	b := suite.browser()
	b.login(buyerEmail)

	status, _ := b.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(suite.T(), http.StatusNoContent, status)

	status, _ = b.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, status)
}

func (suite *RouterTestSuite) TestBuyerCannotReachAdminRoutes() {
	b := suite.browser()
	b.login(buyerEmail)

	status, raw := b.do(http.MethodGet, "/api/admin/budget", nil)
	require.Equal(suite.T(), http.StatusForbidden, status)
	assert.Equal(suite.T(), CodeForbidden, decode[models.ErrorResponse](suite.T(), raw).Error)

	status, _ = b.do(http.MethodGet, "/api/super-admin/users", nil)
	assert.Equal(suite.T(), http.StatusForbidden, status)
}

func (suite *RouterTestSuite) TestAdminApprovesOnce() {
	suite.market.SeedCart(buyerEmail, map[string]int{"103": 2})
	buyer := suite.browser()
	buyer.login(buyerEmail)
	status, raw := buyer.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: []string{"103"}})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	orderID := decode[models.SubmitOrderResponse](suite.T(), raw).Order.ID

	admin := suite.browser()
	admin.login(adminEmail)

	status, raw = admin.do(http.MethodGet, "/api/admin/orders/"+orderID, nil)
	require.Equal(suite.T(), http.StatusOK, status)
	view := decode[review.OrderView](suite.T(), raw)
	assert.True(suite.T(), view.CanDecide)
	require.NotNil(suite.T(), view.Budget)
	assert.Equal(suite.T(), int64(1000000-9000), view.Budget.AfterPurchase)

	status, raw = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/approve", nil)
	require.Equal(suite.T(), http.StatusOK, status, string(raw))
	outcome := decode[review.Outcome](suite.T(), raw)
	assert.Equal(suite.T(), review.ApprovedNotice, outcome.Notice)
	require.NotNil(suite.T(), outcome.Budget)
	assert.Equal(suite.T(), int64(9000), outcome.Budget.Spent)

	patches := suite.market.Calls(http.MethodPatch, "/admin/orders/:id/status")
	status, raw = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/reject", nil)
	require.Equal(suite.T(), http.StatusConflict, status)
	assert.Equal(suite.T(), CodeConflict, decode[models.ErrorResponse](suite.T(), raw).Error)
	assert.Equal(suite.T(), patches, suite.market.Calls(http.MethodPatch, "/admin/orders/:id/status"))

	status, raw = admin.do(http.MethodGet, "/api/stats/orders", nil)
	require.Equal(suite.T(), http.StatusOK, status)
	stats := decode[consumer.Stats](suite.T(), raw)
	assert.Equal(suite.T(), int64(1), stats.Approved)
	assert.Equal(suite.T(), int64(0), stats.Pending)
}

func (suite *RouterTestSuite) TestSuperAdminCannotDemoteSelf() {
	owner := suite.browser()
	owner.login(ownerEmail)

	status, raw := owner.do(http.MethodGet, "/api/super-admin/users", nil)
	require.Equal(suite.T(), http.StatusOK, status)
	page := decode[models.Page[models.User]](suite.T(), raw)
	assert.Len(suite.T(), page.Data, 3)

	status, _ = owner.do(http.MethodPatch, "/api/super-admin/users/u3/role", models.UpdateRoleRequest{Role: "user"})
	assert.Equal(suite.T(), http.StatusBadRequest, status)

	status, _ = owner.do(http.MethodPatch, "/api/super-admin/users/u1/role", models.UpdateRoleRequest{Role: "admin"})
	assert.Equal(suite.T(), http.StatusNoContent, status)
}

func (suite *RouterTestSuite) TestRejectedItemsReturnToCart() {
	suite.market.SeedCart(buyerEmail, map[string]int{"101": 2})
	buyer := suite.browser()
	buyer.login(buyerEmail)

	status, raw := buyer.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: []string{"101"}})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	submitted := decode[models.SubmitOrderResponse](suite.T(), raw)
	assert.Empty(suite.T(), submitted.Cart)

	admin := suite.browser()
	admin.login(adminEmail)
	status, raw = admin.do(http.MethodPost, "/api/admin/orders/"+submitted.Order.ID+"/reject", nil)
	require.Equal(suite.T(), http.StatusOK, status, string(raw))

	status, raw = buyer.do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusOK, status)
	cartBody := decode[models.CartResponse](suite.T(), raw)
	require.Len(suite.T(), cartBody.Items, 1)
	assert.Equal(suite.T(), "101", cartBody.Items[0].ID)
	assert.Equal(suite.T(), 2, cartBody.Count)

	status, raw = buyer.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: []string{"101"}})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	assert.Empty(suite.T(), suite.market.CartOf(buyerEmail))
}

func (suite *RouterTestSuite) TestSubmitSeesItemsAddedElsewhere() {
	b := suite.browser()
	b.login(buyerEmail)
	status, _ := b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(suite.T(), http.StatusOK, status)

	suite.market.SeedCart(buyerEmail, map[string]int{"102": 1})

	status, raw := b.do(http.MethodPost, "/api/orders", models.SubmitOrderRequest{ItemIDs: []string{"102"}})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	assert.Equal(suite.T(), 1, decode[models.SubmitOrderResponse](suite.T(), raw).PurchaseComplete.TotalQuantity)
}

func (suite *RouterTestSuite) TestInstantOrderCleansUnloadedCart() {
	suite.market.SeedCart(buyerEmail, map[string]int{"101": 1})
	b := suite.browser()
	b.login(buyerEmail)

	status, raw := b.do(http.MethodPost, "/api/orders/instant", models.InstantOrderRequest{
		ItemID:   "101",
		Title:    "새우깡",
		Price:    1500,
		Quantity: 1,
	})
	require.Equal(suite.T(), http.StatusCreated, status, string(raw))
	assert.Empty(suite.T(), decode[models.SubmitOrderResponse](suite.T(), raw).Cart)
	assert.Empty(suite.T(), suite.market.CartOf(buyerEmail))
}

func (suite *RouterTestSuite) TestPromotionReachesLoggedInUser() {
	buyer := suite.browser()
	buyer.login(buyerEmail)
	status, _ := buyer.do(http.MethodGet, "/api/admin/budget", nil)
	require.Equal(suite.T(), http.StatusForbidden, status)

	owner := suite.browser()
	owner.login(ownerEmail)
	status, _ = owner.do(http.MethodPatch, "/api/super-admin/users/u1/role", models.UpdateRoleRequest{Role: "admin"})
	require.Equal(suite.T(), http.StatusNoContent, status)

	status, raw := buyer.do(http.MethodGet, "/api/admin/budget", nil)
	assert.Equal(suite.T(), http.StatusOK, status, string(raw))

	status, _ = owner.do(http.MethodPatch, "/api/super-admin/users/u1/role", models.UpdateRoleRequest{Role: "user"})
	require.Equal(suite.T(), http.StatusNoContent, status)
	status, _ = buyer.do(http.MethodGet, "/api/admin/budget", nil)
	assert.Equal(suite.T(), http.StatusForbidden, status)
}
