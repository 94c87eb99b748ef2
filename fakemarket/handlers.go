package fakemarket

import (
	"net/http"
	"slices"
	"sort"
	"strconv"
	"time"

	"snack-gateway/models"

	"github.com/gin-gonic/gin"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

// accountByID must be called with mu held.
func (s *Server) accountByID(id string) *account {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) caller(c *gin.Context) *account {
	return s.accountByID(c.GetString("userID"))
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":             u.ID,
		"email":          u.Email,
		"nickname":       u.Nickname,
		"is_admin":       u.IsAdmin,
		"is_super_admin": u.IsSuperAdmin,
		"company":        gin.H{"name": u.CompanyName},
	}
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		errorJSON(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "이메일 또는 비밀번호가 올바르지 않습니다.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": s.issueToken(acc.user.ID), "user": userJSON(acc.user)})
}

func (s *Server) signup(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		Nickname    string `json:"nickname"`
		CompanyName string `json:"company_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		errorJSON(c, http.StatusConflict, "DUPLICATE_EMAIL", "이미 가입된 이메일입니다.")
		return
	}
	acc := s.addAccount(req.Email, req.Nickname, "N", "N")
	acc.password = req.Password
	if req.CompanyName != "" {
		acc.user.CompanyName = req.CompanyName
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": s.issueToken(acc.user.ID), "user": userJSON(acc.user)})
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	for token, uid := range s.tokens {
		if uid == c.GetString("userID") {
			delete(s.tokens, token)
		}
	}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.caller(c)
	if acc == nil {
		errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "로그인이 필요합니다.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(acc.user)})
}

func (s *Server) listItems(c *gin.Context) {
	category := c.Query("category")

	s.mu.Lock()
	items := make([]models.Item, 0, len(s.items))
	for _, id := range sortedKeys(s.items) {
		if category == "" || s.items[id].Category == category {
			items = append(items, s.items[id])
		}
	}
	s.mu.Unlock()

	if c.Query("sort") == "priceLow" {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	}
	s.respondList(c, items)
}

func (s *Server) getItem(c *gin.Context) {
	s.mu.Lock()
	item, ok := s.items[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "상품을 찾을 수 없습니다.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// respondPage paginates data with page/limit query params.
func respondPage[T any](c *gin.Context, bare bool, data []T) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	total := len(data)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	if bare {
		c.JSON(http.StatusOK, data[start:end])
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data[start:end],
		"pagination": models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

func (s *Server) respondList(c *gin.Context, items []models.Item) {
	respondPage(c, s.BareLists, items)
}

// cartLines must be called with mu held.
func (s *Server) cartLines(uid string) []models.CartLine {
	lines := make([]models.CartLine, 0, len(s.carts[uid]))
	for _, row := range s.carts[uid] {
		item := s.items[row.ItemID]
		lines = append(lines, models.CartLine{
			ID:       row.ItemID,
			Title:    item.Title,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: row.Quantity,
		})
	}
	return lines
}

// respondCart must be called with mu held.
func (s *Server) respondCart(c *gin.Context, uid string) {
	lines := s.cartLines(uid)
	rows := make([]gin.H, 0, len(lines))
	for i, line := range lines {
		row := gin.H{"id": strconv.Itoa(i + 1), "itemId": line.ID, "quantity": line.Quantity}
		if !s.OmitProductFields {
			row["title"] = line.Title
			row["price"] = line.Price
			row["image"] = line.Image
		}
		rows = append(rows, row)
	}
	if s.BareLists {
		c.JSON(http.StatusOK, rows)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

func (s *Server) getCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondCart(c, c.GetString("userID"))
}

func (s *Server) addCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[req.ItemID]; !ok {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "상품을 찾을 수 없습니다.")
		return
	}

	uid := c.GetString("userID")
	found := false
	for i, row := range s.carts[uid] {
		if row.ItemID == req.ItemID {
			s.carts[uid][i].Quantity += req.Quantity
			found = true
			break
		}
	}
	if !found {
		s.carts[uid] = append(s.carts[uid], cartRow{ItemID: req.ItemID, Quantity: req.Quantity})
	}
	s.respondCart(c, uid)
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "수량은 1 이상이어야 합니다.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uid := c.GetString("userID")
	idx := slices.IndexFunc(s.carts[uid], func(r cartRow) bool { return r.ItemID == c.Param("id") })
	if idx < 0 {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "장바구니에 없는 상품입니다.")
		return
	}
	s.carts[uid][idx].Quantity = req.Quantity
	s.respondCart(c, uid)
}

func (s *Server) deleteCartItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := c.GetString("userID")
	idx := slices.IndexFunc(s.carts[uid], func(r cartRow) bool { return r.ItemID == c.Param("id") })
	if idx < 0 {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "장바구니에 없는 상품입니다.")
		return
	}
	s.carts[uid] = slices.Delete(s.carts[uid], idx, idx+1)
	if len(s.carts[uid]) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	s.respondCart(c, uid)
}

func (s *Server) clearCart(c *gin.Context) {
	s.mu.Lock()
	delete(s.carts, c.GetString("userID"))
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// orderJSON must be called with mu held.
func (s *Server) orderJSON(o *orderRow, detailed bool) gin.H {
	body := gin.H{
		"id":             o.ID,
		"created_at":     o.CreatedAt.Format(time.RFC3339),
		"total_quantity": o.TotalQuantity,
		"total_amount":   o.TotalAmount,
		"status":         o.Status,
	}
	if len(o.Items) > 0 {
		body["product_name"] = o.Items[0].Title
		body["item_count"] = len(o.Items)
	}
	if !detailed {
		return body
	}

	items := make([]gin.H, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, gin.H{
			"image":       line.Image,
			"category":    s.items[line.ItemID].Category,
			"name":        line.Title,
			"price":       line.Price,
			"quantity":    line.Quantity,
			"total_price": line.Price * int64(line.Quantity),
		})
	}
	body["items"] = items
	body["total_count"] = o.TotalQuantity
	body["request_message"] = o.RequestMessage
	body["result_message"] = o.ResultMessage
	if acc := s.accountByID(o.UserID); acc != nil {
		body["requester"] = gin.H{"id": acc.user.ID, "nickname": acc.user.Nickname, "email": acc.user.Email}
	}
	if acc := s.accountByID(o.ApproverID); acc != nil {
		body["approver"] = gin.H{"id": acc.user.ID, "nickname": acc.user.Nickname, "email": acc.user.Email}
	}
	if o.ApprovedAt != nil {
		body["approved_at"] = o.ApprovedAt.Format(time.RFC3339)
	}
	return body
}

func (s *Server) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "주문할 상품이 없습니다.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.Itoa(s.nextOrderID)
	s.nextOrderID++
	order := &orderRow{
		ID:             id,
		UserID:         c.GetString("userID"),
		Items:          req.Items,
		TotalQuantity:  req.TotalQuantity,
		TotalAmount:    req.TotalAmount,
		Status:         models.OrderPending,
		CreatedAt:      time.Now().UTC(),
		RequestMessage: req.RequestMessage,
	}
	s.orders[id] = order
	c.JSON(http.StatusCreated, gin.H{"order": s.orderJSON(order, false)})
}

func (s *Server) listOrders(c *gin.Context) {
	status := models.ParseOrderStatus(c.Query("status"))

	s.mu.Lock()
	caller := s.caller(c)
	ids := sortedKeys(s.orders)
	data := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		o := s.orders[id]
		if !caller.user.Admin() && o.UserID != caller.user.ID {
			continue
		}
		if c.Query("status") != "" && o.Status != status {
			continue
		}
		data = append(data, s.orderJSON(o, false))
	}
	s.mu.Unlock()

	respondPage(c, s.BareLists, data)
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[c.Param("id")]
	caller := s.caller(c)
	if !ok || (!caller.user.Admin() && o.UserID != caller.user.ID) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "주문을 찾을 수 없습니다.")
		return
	}
	c.JSON(http.StatusOK, s.orderJSON(o, true))
}

func (s *Server) cancelOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[c.Param("id")]
	if !ok || o.UserID != c.GetString("userID") {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "주문을 찾을 수 없습니다.")
		return
	}
	if o.Status != models.OrderPending {
		errorJSON(c, http.StatusConflict, "NOT_PENDING", "승인 대기 중인 요청만 취소할 수 있습니다.")
		return
	}
	delete(s.orders, o.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	caller := s.caller(c)
	if !caller.user.Admin() {
		errorJSON(c, http.StatusForbidden, "FORBIDDEN", "관리자만 처리할 수 있습니다.")
		return
	}
	o, ok := s.orders[c.Param("id")]
	if !ok {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "주문을 찾을 수 없습니다.")
		return
	}
	if o.Status != models.OrderPending {
		errorJSON(c, http.StatusConflict, "NOT_PENDING", "이미 처리된 요청입니다.")
		return
	}

	now := time.Now().UTC()
	switch models.ParseOrderStatus(req.Status) {
	case models.OrderApproved:
		if o.TotalAmount > s.budgetAmount-s.spentAmount {
			errorJSON(c, http.StatusBadRequest, "BUDGET_EXCEEDED", "남은 예산이 부족합니다.")
			return
		}
		s.spentAmount += o.TotalAmount
		o.Status = models.OrderApproved
		o.ResultMessage = "승인되었습니다."
	case models.OrderCancelled, models.OrderRejected:
		o.Status = models.OrderCancelled
		o.ResultMessage = "반려되었습니다."
		for _, line := range o.Items {
			s.returnToCart(o.UserID, line)
		}
	default:
		errorJSON(c, http.StatusBadRequest, "INVALID_STATUS", "지원하지 않는 상태입니다.")
		return
	}
	o.ApprovedAt = &now
	o.ApproverID = caller.user.ID
	c.JSON(http.StatusOK, s.orderJSON(o, false))
}

// returnToCart must be called with mu held.
func (s *Server) returnToCart(uid string, line models.OrderLine) {
	for i, row := range s.carts[uid] {
		if row.ItemID == line.ItemID {
			s.carts[uid][i].Quantity += line.Quantity
			return
		}
	}
	s.carts[uid] = append(s.carts[uid], cartRow{ItemID: line.ItemID, Quantity: line.Quantity})
}

func (s *Server) getBudget(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	budget := gin.H{
		"budget_amount": s.budgetAmount,
		"remaining":     s.budgetAmount - s.spentAmount,
	}
	if !s.OmitSpent {
		budget["spent_amount"] = s.spentAmount
	}
	c.JSON(http.StatusOK, gin.H{
		"budget":         budget,
		"initial_budget": gin.H{"amount": s.initialBudget},
	})
}

func (s *Server) updateBudget(c *gin.Context) {
	var req models.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.caller(c).user.Admin() {
		errorJSON(c, http.StatusForbidden, "FORBIDDEN", "관리자만 처리할 수 있습니다.")
		return
	}
	if req.BudgetAmount != nil {
		s.budgetAmount = *req.BudgetAmount
	}
	if req.InitialBudget != nil {
		s.initialBudget = *req.InitialBudget
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	if !s.caller(c).user.SuperAdmin() {
		s.mu.Unlock()
		errorJSON(c, http.StatusForbidden, "FORBIDDEN", "최고 관리자만 접근할 수 있습니다.")
		return
	}
	users := make([]gin.H, 0, len(s.accounts))
	for _, email := range sortedKeys(s.accounts) {
		users = append(users, userJSON(s.accounts[email].user))
	}
	s.mu.Unlock()

	respondPage(c, s.BareLists, users)
}

func (s *Server) updateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.caller(c).user.SuperAdmin() {
		errorJSON(c, http.StatusForbidden, "FORBIDDEN", "최고 관리자만 접근할 수 있습니다.")
		return
	}
	acc := s.accountByID(c.Param("id"))
	if acc == nil {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "회원을 찾을 수 없습니다.")
		return
	}
	acc.user.IsAdmin = "N"
	if req.Role == "admin" {
		acc.user.IsAdmin = "Y"
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.caller(c).user.SuperAdmin() {
		errorJSON(c, http.StatusForbidden, "FORBIDDEN", "최고 관리자만 접근할 수 있습니다.")
		return
	}
	acc := s.accountByID(c.Param("id"))
	if acc == nil {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "회원을 찾을 수 없습니다.")
		return
	}
	delete(s.accounts, acc.user.Email)
	c.Status(http.StatusNoContent)
}
