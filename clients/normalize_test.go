package clients

import (
	"testing"
	"time"

	"snack-gateway/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCartShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []models.CartLine
	}{
		{
			name: "bare array with numeric id and string quantity",
			body: `[{"itemId":101,"quantity":"2","title":"새우깡","price":1500,"image":"a.png"}]`,
			want: []models.CartLine{{ID: "101", Title: "새우깡", Price: 1500, Image: "a.png", Quantity: 2}},
		},
		{
			name: "nested data items with product object",
			body: `{"data":{"items":[{"item_id":"102","quantity":1,"item":{"name":"코카콜라 제로","price":2000,"img":"coke.png"}}]}}`,
			want: []models.CartLine{{ID: "102", Title: "코카콜라 제로", Price: 2000, Image: "coke.png", Quantity: 1}},
		},
		{
			name: "cart envelope and missing quantity",
			body: `{"cart":[{"id":"103","title":"허니버터칩","price":3000}]}`,
			want: []models.CartLine{{ID: "103", Title: "허니버터칩", Price: 3000, Quantity: 1}},
		},
		{
			name: "empty body",
			body: ``,
			want: []models.CartLine{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := decodeCart([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestDecodeBudgetShapes(t *testing.T) {
	nested, err := decodeBudget([]byte(`{"budget":{"budget_amount":1000000,"spent_amount":12000},"initial_budget":{"amount":500000}}`))
	require.NoError(t, err)
	require.NotNil(t, nested.BudgetAmount)
	assert.Equal(t, int64(1000000), *nested.BudgetAmount)
	require.NotNil(t, nested.SpentAmount)
	assert.Equal(t, int64(12000), *nested.SpentAmount)
	assert.Nil(t, nested.Remaining)
	require.NotNil(t, nested.InitialBudget)
	assert.Equal(t, int64(500000), *nested.InitialBudget)

	flat, err := decodeBudget([]byte(`{"data":{"budget_amount":"50000","remaining":10000,"initial_budget":70000}}`))
	require.NoError(t, err)
	require.NotNil(t, flat.BudgetAmount)
	assert.Equal(t, int64(50000), *flat.BudgetAmount)
	assert.Nil(t, flat.SpentAmount)
	require.NotNil(t, flat.Remaining)
	assert.Equal(t, int64(10000), *flat.Remaining)
	require.NotNil(t, flat.InitialBudget)
	assert.Equal(t, int64(70000), *flat.InitialBudget)
}

func TestDecodeOrderDetailFillsGaps(t *testing.T) {
	body := `{"order":{
		"id":7,
		"created_at":"2026-10-01 09:30:00",
		"status":"requested",
		"total_amount":"8500",
		"items":[
			{"name":"코카콜라 제로","price":2000,"quantity":2},
			{"item":{"title":"새우깡","price":1500},"quantity":1}
		],
		"user":{"id":"u1","name":"구매자"},
		"reject_reason":"예산 초과"
	}}`

	detail, err := decodeOrderDetail([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "7", detail.ID)
	assert.Equal(t, models.OrderPending, detail.Status)
	assert.Equal(t, "승인 대기", detail.StatusLabel)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC), detail.RequestDate)
	assert.Equal(t, int64(8500), detail.OrderAmount)
	assert.Equal(t, int64(8500), detail.TotalAmount)
	assert.Equal(t, 3, detail.TotalQuantity)
	assert.Equal(t, 3, detail.TotalCount)
	assert.Equal(t, "코카콜라 제로 외 1건", detail.ProductLabel)

	require.Len(t, detail.Items, 2)
	assert.Equal(t, int64(4000), detail.Items[0].TotalPrice)
	assert.Equal(t, "새우깡", detail.Items[1].Name)
	assert.Equal(t, int64(1500), detail.Items[1].UnitPrice)

	require.NotNil(t, detail.Requester)
	assert.Equal(t, "구매자", detail.Requester.Nickname)
	assert.Nil(t, detail.Approver)
	assert.Equal(t, "예산 초과", detail.ResultMessage)
}

func TestDecodeUserFlags(t *testing.T) {
	user, err := decodeUser([]byte(`{"user":{"id":3,"email":"owner@snack.co.kr","name":"최고","is_admin":true,"company":{"name":"코드잇"}}}`))
	require.NoError(t, err)
	assert.Equal(t, models.User{
		ID:           "3",
		Email:        "owner@snack.co.kr",
		Nickname:     "최고",
		IsAdmin:      "Y",
		IsSuperAdmin: "N",
		CompanyName:  "코드잇",
	}, user)
}

func TestToPageWithoutPagination(t *testing.T) {
	page, err := toPage([]byte(`[{"id":1,"name":"새우깡","price":"1500.4"}]`), models.ListQuery{}, wireItem.toModel)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1500), page.Data[0].Price)
	assert.Equal(t, "새우깡", page.Data[0].Title)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 1, Total: 1, TotalPages: 1}, page.Pagination)
}

func TestDecodeRejectsBadNumber(t *testing.T) {
	_, err := decodeItem([]byte(`{"id":"1","price":"abc"}`))
	assert.Error(t, err)
}

func TestProductLabel(t *testing.T) {
	assert.Equal(t, "새우깡", productLabel("새우깡", 1))
	assert.Equal(t, "새우깡", productLabel("새우깡", 0))
	assert.Equal(t, "새우깡 외 2건", productLabel("새우깡", 3))
}
