// Package fakemarket is an in-memory stand-in for the upstream marketplace API.
// Tests run it under httptest and point the gateway's client at it.
package fakemarket

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"snack-gateway/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const DefaultPassword = "snack1234"

type account struct {
	user     models.User
	password string
}

type cartRow struct {
	ItemID   string
	Quantity int
}

type orderRow struct {
	ID             string
	UserID         string
	Items          []models.OrderLine
	TotalQuantity  int
	TotalAmount    int64
	Status         models.OrderStatus
	CreatedAt      time.Time
	ApprovedAt     *time.Time
	ApproverID     string
	RequestMessage string
	ResultMessage  string
}

type failure struct {
	method string
	path   string
	status int
}

// Server holds the fake upstream state. All state is guarded by mu.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> user id
	items    map[string]models.Item
	carts    map[string][]cartRow
	orders   map[string]*orderRow

	nextUserID  int
	nextOrderID int

	budgetAmount  int64
	spentAmount   int64
	initialBudget int64

	failures []failure
	calls    map[string]int

	// BareLists makes list and cart endpoints answer with bare arrays.
	BareLists bool
	// OmitProductFields strips title, price and image from cart responses.
	OmitProductFields bool
	// OmitSpent drops spent_amount from the budget payload.
	OmitSpent bool

	router *gin.Engine
	http   *httptest.Server
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		accounts:      make(map[string]*account),
		tokens:        make(map[string]string),
		items:         make(map[string]models.Item),
		carts:         make(map[string][]cartRow),
		orders:        make(map[string]*orderRow),
		nextUserID:    1,
		nextOrderID:   1,
		budgetAmount:  1000000,
		initialBudget: 1000000,
		calls:         make(map[string]int),
	}

	s.addAccount("buyer@snack.co.kr", "구매자", "N", "N")
	s.addAccount("admin@snack.co.kr", "관리자", "Y", "N")
	s.addAccount("owner@snack.co.kr", "최고관리자", "Y", "Y")

	for _, item := range []models.Item{
		{ID: "101", Title: "새우깡", Price: 1500, Image: "https://cdn.snack.co.kr/shrimp.png", Category: "snack"},
		{ID: "102", Title: "코카콜라 제로", Price: 2000, Image: "https://cdn.snack.co.kr/coke.png", Category: "drink"},
		{ID: "103", Title: "허니버터칩", Price: 3000, Image: "https://cdn.snack.co.kr/honey.png", Category: "snack"},
		{ID: "104", Title: "삼다수 2L", Price: 1200, Image: "", Category: "water"},
	} {
		s.items[item.ID] = item
	}

	s.router = s.setupRouter()
	return s
}

// Start serves the router on a local httptest listener.
func (s *Server) Start() *Server {
	s.http = httptest.NewServer(s.router)
	return s
}

func (s *Server) URL() string {
	return s.http.URL
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) addAccount(email, nickname, isAdmin, isSuper string) *account {
	id := fmt.Sprintf("u%d", s.nextUserID)
	s.nextUserID++
	acc := &account{
		user: models.User{
			ID:           id,
			Email:        email,
			Nickname:     nickname,
			IsAdmin:      isAdmin,
			IsSuperAdmin: isSuper,
			CompanyName:  "코드잇",
		},
		password: DefaultPassword,
	}
	s.accounts[email] = acc
	return acc
}

func (s *Server) issueToken(userID string) string {
	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}

// Token logs the account in directly and returns a fresh access token.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return ""
	}
	return s.issueToken(acc.user.ID)
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

func (s *Server) userID(email string) string {
	if acc, ok := s.accounts[email]; ok {
		return acc.user.ID
	}
	return ""
}

// SeedCart replaces the cart of the account with the given item quantities.
func (s *Server) SeedCart(email string, rows map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := s.userID(email)
	s.carts[uid] = nil
	for _, id := range sortedKeys(rows) {
		s.carts[uid] = append(s.carts[uid], cartRow{ItemID: id, Quantity: rows[id]})
	}
}

func (s *Server) CartOf(email string) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLines(s.userID(email))
}

func (s *Server) SetBudget(amount, spent int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgetAmount = amount
	s.spentAmount = spent
}

func (s *Server) Remaining() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgetAmount - s.spentAmount
}

// OrderStatus returns the stored status of an order, or "" when it does not exist.
func (s *Server) OrderStatus(id string) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return o.Status
	}
	return ""
}

func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// FailNext makes the next request matching method and route template answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status})
}

// Calls reports how many requests hit a route template, e.g. Calls("POST", "/orders").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) instrument(c *gin.Context) {
	route := c.FullPath()

	s.mu.Lock()
	s.calls[c.Request.Method+" "+route]++
	var injected *failure
	for i, f := range s.failures {
		if f.method == c.Request.Method && f.path == route {
			injected = &f
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if injected != nil {
		c.AbortWithStatusJSON(injected.status, gin.H{
			"error":   "INJECTED",
			"message": fmt.Sprintf("simulated %d failure", injected.status),
		})
		return
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")

	s.mu.Lock()
	uid, ok := s.tokens[token]
	if ok && s.accountByID(uid) == nil {
		ok = false
	}
	s.mu.Unlock()

	if header == "" || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "UNAUTHORIZED",
			"message": "로그인이 필요합니다.",
		})
		return
	}
	c.Set("userID", uid)
	c.Next()
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.instrument)

	router.POST("/auth/login", s.login)
	router.POST("/auth/signup", s.signup)

	authed := router.Group("/", s.authenticate)
	authed.POST("/auth/logout", s.logout)
	authed.GET("/auth/me", s.me)

	authed.GET("/items", s.listItems)
	authed.GET("/items/:id", s.getItem)

	authed.GET("/cart", s.getCart)
	authed.POST("/cart/items", s.addCartItem)
	authed.PATCH("/cart/items/:id", s.updateCartItem)
	authed.DELETE("/cart/items/:id", s.deleteCartItem)
	authed.DELETE("/cart", s.clearCart)

	authed.POST("/orders", s.createOrder)
	authed.GET("/orders", s.listOrders)
	authed.GET("/orders/:id", s.getOrder)
	authed.DELETE("/orders/:id", s.cancelOrder)

	authed.PATCH("/admin/orders/:id/status", s.updateOrderStatus)
	authed.GET("/budget/current", s.getBudget)
	authed.PATCH("/budget", s.updateBudget)

	authed.GET("/super-admin/users", s.listUsers)
	authed.PATCH("/super-admin/users/:id/role", s.updateUserRole)
	authed.DELETE("/super-admin/users/:id", s.deleteUser)

	return router
}
