package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"snack-gateway/models"
)

// The upstream is inconsistent about list envelopes, id types and field casing.
// Everything in this file folds those variants into the canonical models.

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" || s[0] == '{' || s[0] == '[' {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexInt(math.Round(n))
	return nil
}

func (f *flexInt) ptr() *int64 {
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid time %q", s)
}

func firstString(values ...flexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

func firstInt(values ...*flexInt) int64 {
	for _, v := range values {
		if v != nil {
			return int64(*v)
		}
	}
	return 0
}

// splitList accepts a bare array, {data, pagination}, {items} or {data: {items}}.
func splitList(body []byte) (json.RawMessage, *models.Pagination, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil, nil
	}
	if trimmed[0] == '[' {
		return trimmed, nil, nil
	}

	var envelope struct {
		Data       json.RawMessage    `json:"data"`
		Items      json.RawMessage    `json:"items"`
		Cart       json.RawMessage    `json:"cart"`
		Pagination *models.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal list envelope: %w", err)
	}

	switch {
	case len(envelope.Items) > 0:
		return envelope.Items, envelope.Pagination, nil
	case len(envelope.Data) > 0 && bytes.TrimSpace(envelope.Data)[0] == '{':
		inner, _, err := splitList(envelope.Data)
		return inner, envelope.Pagination, err
	case len(envelope.Data) > 0:
		return envelope.Data, envelope.Pagination, nil
	case len(envelope.Cart) > 0:
		inner, _, err := splitList(envelope.Cart)
		return inner, envelope.Pagination, err
	}
	return nil, envelope.Pagination, nil
}

func decodeList[W any](body []byte) ([]W, *models.Pagination, error) {
	raw, pagination, err := splitList(body)
	if err != nil || len(raw) == 0 {
		return nil, pagination, err
	}
	var out []W
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return out, pagination, nil
}

func toPage[W any, M any](body []byte, query models.ListQuery, convert func(W) M) (models.Page[M], error) {
	wire, pagination, err := decodeList[W](body)
	if err != nil {
		return models.Page[M]{}, err
	}
	page := models.Page[M]{Data: make([]M, 0, len(wire))}
	for _, w := range wire {
		page.Data = append(page.Data, convert(w))
	}
	if pagination != nil {
		page.Pagination = *pagination
	} else {
		page.Pagination = models.Pagination{
			Page:       max(query.Page, 1),
			Limit:      len(page.Data),
			Total:      len(page.Data),
			TotalPages: 1,
		}
	}
	return page, nil
}

type wireProduct struct {
	Title flexString `json:"title"`
	Name  flexString `json:"name"`
	Price *flexInt   `json:"price"`
	Image flexString `json:"image"`
	Img   flexString `json:"img"`
}

type wireCartLine struct {
	ID          flexString   `json:"id"`
	ItemID      flexString   `json:"itemId"`
	ItemIDSnake flexString   `json:"item_id"`
	Title       flexString   `json:"title"`
	Price       *flexInt     `json:"price"`
	Image       flexString   `json:"image"`
	Quantity    *flexInt     `json:"quantity"`
	Item        *wireProduct `json:"item"`
}

func (w wireCartLine) toModel() models.CartLine {
	line := models.CartLine{
		ID:       firstString(w.ItemID, w.ItemIDSnake, w.ID),
		Title:    string(w.Title),
		Price:    firstInt(w.Price),
		Image:    string(w.Image),
		Quantity: int(firstInt(w.Quantity)),
	}
	if w.Item != nil {
		if line.Title == "" {
			line.Title = firstString(w.Item.Title, w.Item.Name)
		}
		if w.Price == nil {
			line.Price = firstInt(w.Item.Price)
		}
		if line.Image == "" {
			line.Image = firstString(w.Item.Image, w.Item.Img)
		}
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	return line
}

func decodeCart(body []byte) ([]models.CartLine, error) {
	wire, _, err := decodeList[wireCartLine](body)
	if err != nil {
		return nil, err
	}
	lines := make([]models.CartLine, 0, len(wire))
	for _, w := range wire {
		lines = append(lines, w.toModel())
	}
	return lines, nil
}

type wireOrderItem struct {
	Image      flexString   `json:"image"`
	Category   flexString   `json:"category"`
	Name       flexString   `json:"name"`
	Title      flexString   `json:"title"`
	Price      *flexInt     `json:"price"`
	UnitPrice  *flexInt     `json:"unit_price"`
	Quantity   *flexInt     `json:"quantity"`
	TotalPrice *flexInt     `json:"total_price"`
	Item       *wireProduct `json:"item"`
}

func (w wireOrderItem) toModel() models.OrderDetailItem {
	item := models.OrderDetailItem{
		Image:     string(w.Image),
		Category:  string(w.Category),
		Name:      firstString(w.Name, w.Title),
		UnitPrice: firstInt(w.UnitPrice, w.Price),
		Quantity:  int(firstInt(w.Quantity)),
	}
	if w.Item != nil {
		if item.Name == "" {
			item.Name = firstString(w.Item.Title, w.Item.Name)
		}
		if item.Image == "" {
			item.Image = firstString(w.Item.Image, w.Item.Img)
		}
		if w.UnitPrice == nil && w.Price == nil {
			item.UnitPrice = firstInt(w.Item.Price)
		}
	}
	if w.TotalPrice != nil {
		item.TotalPrice = int64(*w.TotalPrice)
	} else {
		item.TotalPrice = item.UnitPrice * int64(item.Quantity)
	}
	return item
}

type wirePerson struct {
	ID       flexString `json:"id"`
	Nickname flexString `json:"nickname"`
	Name     flexString `json:"name"`
	Email    flexString `json:"email"`
}

func (w *wirePerson) toModel() *models.Person {
	if w == nil {
		return nil
	}
	return &models.Person{
		ID:       string(w.ID),
		Nickname: firstString(w.Nickname, w.Name),
		Email:    string(w.Email),
	}
}

type wireOrder struct {
	ID               flexString      `json:"id"`
	CreatedAt        *flexTime       `json:"created_at"`
	RequestDate      *flexTime       `json:"request_date"`
	RequestDateCamel *flexTime       `json:"requestDate"`
	ProductLabel     flexString      `json:"productLabel"`
	ProductName      flexString      `json:"product_name"`
	ItemCount        *flexInt        `json:"item_count"`
	TotalQuantity    *flexInt        `json:"total_quantity"`
	TotalCountCamel  *flexInt        `json:"totalCount"`
	TotalCount       *flexInt        `json:"total_count"`
	TotalAmount      *flexInt        `json:"total_amount"`
	TotalAmountCamel *flexInt        `json:"totalAmount"`
	OrderAmount      *flexInt        `json:"order_amount"`
	Status           flexString      `json:"status"`
	Items            []wireOrderItem `json:"items"`

	Requester      *wirePerson `json:"requester"`
	User           *wirePerson `json:"user"`
	Approver       *wirePerson `json:"approver"`
	ApprovedAt     *flexTime   `json:"approved_at"`
	RequestMessage flexString  `json:"request_message"`
	ResultMessage  flexString  `json:"result_message"`
	RejectReason   flexString  `json:"reject_reason"`
}

// productLabel summarizes an order as "<first item> 외 N건".
func productLabel(first string, count int) string {
	if count <= 1 {
		return first
	}
	return fmt.Sprintf("%s 외 %d건", first, count-1)
}

func (w wireOrder) toModel() models.Order {
	order := models.Order{
		ID:          string(w.ID),
		OrderAmount: firstInt(w.TotalAmount, w.TotalAmountCamel, w.OrderAmount),
		Status:      models.ParseOrderStatus(string(w.Status)),
	}
	for _, t := range []*flexTime{w.RequestDate, w.RequestDateCamel, w.CreatedAt} {
		if t != nil && !t.IsZero() {
			order.RequestDate = t.Time
			break
		}
	}
	order.StatusLabel = order.Status.Label()

	items := make([]models.OrderDetailItem, 0, len(w.Items))
	quantity := 0
	for _, wi := range w.Items {
		item := wi.toModel()
		quantity += item.Quantity
		items = append(items, item)
	}

	order.TotalQuantity = int(firstInt(w.TotalQuantity, w.TotalCountCamel, w.TotalCount))
	if order.TotalQuantity == 0 {
		order.TotalQuantity = quantity
	}

	switch {
	case w.ProductLabel != "":
		order.ProductLabel = string(w.ProductLabel)
	case w.ProductName != "":
		order.ProductLabel = productLabel(string(w.ProductName), int(firstInt(w.ItemCount)))
	case len(items) > 0:
		order.ProductLabel = productLabel(items[0].Name, len(items))
	}
	return order
}

func (w wireOrder) toDetail() models.OrderDetail {
	detail := models.OrderDetail{
		Order:          w.toModel(),
		Requester:      w.Requester.toModel(),
		Approver:       w.Approver.toModel(),
		RequestMessage: string(w.RequestMessage),
		ResultMessage:  firstString(w.ResultMessage, w.RejectReason),
		TotalCount:     int(firstInt(w.TotalCountCamel, w.TotalCount, w.TotalQuantity)),
		TotalAmount:    firstInt(w.TotalAmountCamel, w.TotalAmount, w.OrderAmount),
	}
	if detail.Requester == nil {
		detail.Requester = w.User.toModel()
	}
	if w.ApprovedAt != nil && !w.ApprovedAt.IsZero() {
		t := w.ApprovedAt.Time
		detail.ApprovedAt = &t
	}
	detail.Items = make([]models.OrderDetailItem, 0, len(w.Items))
	for _, wi := range w.Items {
		detail.Items = append(detail.Items, wi.toModel())
	}
	if detail.TotalCount == 0 {
		detail.TotalCount = detail.TotalQuantity
	}
	return detail
}

func unwrapObject(body []byte, keys ...string) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	for _, key := range keys {
		if raw, ok := envelope[key]; ok && len(raw) > 0 && bytes.TrimSpace(raw)[0] == '{' {
			return raw
		}
	}
	return body
}

func decodeOrder(body []byte) (models.Order, error) {
	var w wireOrder
	if err := json.Unmarshal(unwrapObject(body, "order", "data"), &w); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return w.toModel(), nil
}

func decodeOrderDetail(body []byte) (models.OrderDetail, error) {
	var w wireOrder
	if err := json.Unmarshal(unwrapObject(body, "order", "data"), &w); err != nil {
		return models.OrderDetail{}, fmt.Errorf("failed to unmarshal order detail: %w", err)
	}
	return w.toDetail(), nil
}

type wireBudgetFigures struct {
	BudgetAmount  *flexInt `json:"budget_amount"`
	SpentAmount   *flexInt `json:"spent_amount"`
	Remaining     *flexInt `json:"remaining"`
	Amount        *flexInt `json:"amount"`
	InitialBudget *flexInt `json:"initial_budget"`
}

// decodeBudget accepts {budget:{...}, initial_budget:{...}} as well as a flat object.
func decodeBudget(body []byte) (models.BudgetSnapshot, error) {
	var envelope struct {
		Budget        *wireBudgetFigures `json:"budget"`
		InitialBudget json.RawMessage    `json:"initial_budget"`
	}
	if err := json.Unmarshal(unwrapObject(body, "data"), &envelope); err != nil {
		return models.BudgetSnapshot{}, fmt.Errorf("failed to unmarshal budget: %w", err)
	}

	figures := envelope.Budget
	if figures == nil {
		figures = &wireBudgetFigures{}
		if err := json.Unmarshal(unwrapObject(body, "data"), figures); err != nil {
			return models.BudgetSnapshot{}, fmt.Errorf("failed to unmarshal budget: %w", err)
		}
	}

	snapshot := models.BudgetSnapshot{
		BudgetAmount: figures.BudgetAmount.ptr(),
		SpentAmount:  figures.SpentAmount.ptr(),
		Remaining:    figures.Remaining.ptr(),
	}

	raw := bytes.TrimSpace(envelope.InitialBudget)
	switch {
	case len(raw) > 0 && raw[0] == '{':
		var initial wireBudgetFigures
		if err := json.Unmarshal(raw, &initial); err != nil {
			return models.BudgetSnapshot{}, fmt.Errorf("failed to unmarshal initial budget: %w", err)
		}
		switch {
		case initial.InitialBudget != nil:
			snapshot.InitialBudget = initial.InitialBudget.ptr()
		case initial.Amount != nil:
			snapshot.InitialBudget = initial.Amount.ptr()
		default:
			snapshot.InitialBudget = initial.BudgetAmount.ptr()
		}
	case len(raw) > 0 && string(raw) != "null":
		var initial flexInt
		if err := json.Unmarshal(raw, &initial); err != nil {
			return models.BudgetSnapshot{}, fmt.Errorf("failed to unmarshal initial budget: %w", err)
		}
		snapshot.InitialBudget = initial.ptr()
	}
	return snapshot, nil
}

type wireUser struct {
	ID           flexString `json:"id"`
	Email        flexString `json:"email"`
	Nickname     flexString `json:"nickname"`
	Name         flexString `json:"name"`
	IsAdmin      flexString `json:"is_admin"`
	IsSuperAdmin flexString `json:"is_super_admin"`
	CompanyName  flexString `json:"company_name"`
	Company      *struct {
		Name flexString `json:"name"`
	} `json:"company"`
}

func (w wireUser) toModel() models.User {
	user := models.User{
		ID:           string(w.ID),
		Email:        string(w.Email),
		Nickname:     firstString(w.Nickname, w.Name),
		IsAdmin:      yesNo(w.IsAdmin),
		IsSuperAdmin: yesNo(w.IsSuperAdmin),
		CompanyName:  string(w.CompanyName),
	}
	if user.CompanyName == "" && w.Company != nil {
		user.CompanyName = string(w.Company.Name)
	}
	return user
}

func yesNo(v flexString) string {
	switch strings.ToUpper(string(v)) {
	case "Y", "TRUE", "1":
		return "Y"
	}
	return "N"
}

func decodeUser(body []byte) (models.User, error) {
	var w wireUser
	if err := json.Unmarshal(unwrapObject(body, "user", "data"), &w); err != nil {
		return models.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return w.toModel(), nil
}

type wireItem struct {
	ID       flexString `json:"id"`
	Title    flexString `json:"title"`
	Name     flexString `json:"name"`
	Price    *flexInt   `json:"price"`
	Image    flexString `json:"image"`
	Img      flexString `json:"img"`
	Category flexString `json:"category"`
	Sales    *flexInt   `json:"sales"`
}

func (w wireItem) toModel() models.Item {
	return models.Item{
		ID:       string(w.ID),
		Title:    firstString(w.Title, w.Name),
		Price:    firstInt(w.Price),
		Image:    firstString(w.Image, w.Img),
		Category: string(w.Category),
		Sales:    int(firstInt(w.Sales)),
	}
}

func decodeItem(body []byte) (models.Item, error) {
	var w wireItem
	if err := json.Unmarshal(unwrapObject(body, "item", "data"), &w); err != nil {
		return models.Item{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return w.toModel(), nil
}
