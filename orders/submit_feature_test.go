package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/ephemeral"
	"snack-gateway/fakemarket"
	"snack-gateway/models"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

type submitTestContext struct {
	market    *fakemarket.Server
	submitter *Submitter
	cart      *cart.Store
	ctx       context.Context
	result    Result
	err       error
}

func (c *submitTestContext) reset() {
	if c.market != nil {
		c.market.Close()
	}
	c.market = fakemarket.New().Start()
	client := clients.NewMarketClient(c.market.URL(), 5*time.Second, zap.NewNop())
	c.submitter = NewSubmitter(client, ephemeral.NewMemoryStore(time.Minute), nil, zap.NewNop())
	c.cart = cart.NewStore(client, zap.NewNop())
	c.ctx = clients.WithToken(context.Background(), c.market.Token(buyer))
	c.result = Result{}
	c.err = nil
}

func (c *submitTestContext) theBuyersCartContains(table *godog.Table) error {
	rows := make(map[string]int)
	for i, row := range table.Rows {
		if i == 0 {
			continue // skip header
		}
		quantity, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		rows[row.Cells[0].Value] = quantity
	}
	c.market.SeedCart(buyer, rows)
	return c.cart.Load(c.ctx)
}

func (c *submitTestContext) theUpstreamFailsTheNextOrder(status int) error {
	c.market.FailNext(http.MethodPost, "/orders", status)
	return nil
}

func (c *submitTestContext) theUpstreamFailsTheNextCartDelete(status int) error {
	c.market.FailNext(http.MethodDelete, "/cart/items/:id", status)
	return nil
}

func (c *submitTestContext) theBuyerSubmitsItems(ids, message string) error {
	var lines []models.CartLine
	current := c.cart.Lines()
	for _, id := range strings.Split(ids, ",") {
		for _, l := range current {
			if l.ID == strings.TrimSpace(id) {
				lines = append(lines, l)
			}
		}
	}
	c.result, c.err = c.submitter.Submit(c.ctx, Session{ID: "feature", UserID: "u1", Cart: c.cart}, lines, message)
	return nil
}

func (c *submitTestContext) anOrderIsCreated() error {
	if c.err != nil {
		return fmt.Errorf("expected an order but got error: %v", c.err)
	}
	if c.result.Order.ID == "" || c.market.OrderStatus(c.result.Order.ID) != models.OrderPending {
		return errors.New("expected a pending order upstream")
	}
	return nil
}

func expectInt(name string, got, want int64) error {
	if got != want {
		return fmt.Errorf("expected %s %d, got %d", name, want, got)
	}
	return nil
}

func (c *submitTestContext) theProductAmountIs(amount int) error {
	return expectInt("product amount", c.result.Totals.ProductAmount, int64(amount))
}

func (c *submitTestContext) theDeliveryFeeIs(amount int) error {
	return expectInt("delivery fee", c.result.Totals.DeliveryFee, int64(amount))
}

func (c *submitTestContext) theTotalAmountIs(amount int) error {
	return expectInt("total amount", c.result.Totals.TotalAmount, int64(amount))
}

func (c *submitTestContext) theTotalQuantityIs(quantity int) error {
	return expectInt("total quantity", int64(c.result.Totals.TotalQuantity), int64(quantity))
}

func (c *submitTestContext) theConfirmationShows(title string, total int) error {
	complete, err := c.submitter.TakePurchaseComplete(c.ctx, "feature")
	if err != nil {
		return err
	}
	if complete.FirstProductTitle != title {
		return fmt.Errorf("expected first product %q, got %q", title, complete.FirstProductTitle)
	}
	return expectInt("confirmation total", complete.TotalAmount, int64(total))
}

func (c *submitTestContext) thereIsNoConfirmationToRead() error {
	if _, err := c.submitter.TakePurchaseComplete(c.ctx, "feature"); !errors.Is(err, ephemeral.ErrNotFound) {
		return fmt.Errorf("expected no confirmation, got %v", err)
	}
	return nil
}

func (c *submitTestContext) theCartHoldsOnly(id string) error {
	lines := c.cart.Lines()
	if len(lines) != 1 || lines[0].ID != id {
		return fmt.Errorf("expected cart to hold only %s, got %+v", id, lines)
	}
	return nil
}

func (c *submitTestContext) theCartHoldsLines(count int) error {
	return expectInt("cart lines", int64(len(c.cart.Lines())), int64(count))
}

func (c *submitTestContext) theSubmissionFailsWith(message string) error {
	if c.err == nil {
		return errors.New("expected submission to fail")
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.err.Error())
	}
	return nil
}

func (c *submitTestContext) noOrderExistsUpstream() error {
	return expectInt("upstream orders", int64(c.market.OrderCount()), 0)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &submitTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.market.Close()
		tc.market = nil
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the buyer's cart contains:$`, tc.theBuyersCartContains)
	ctx.Step(`^the upstream fails the next order with status (\d+)$`, tc.theUpstreamFailsTheNextOrder)
	ctx.Step(`^the upstream fails the next cart delete with status (\d+)$`, tc.theUpstreamFailsTheNextCartDelete)

	// When steps
	ctx.Step(`^the buyer submits items "([^"]*)" with message "([^"]*)"$`, tc.theBuyerSubmitsItems)

	// Then steps
	ctx.Step(`^an order is created$`, tc.anOrderIsCreated)
	ctx.Step(`^the product amount is (\d+)$`, tc.theProductAmountIs)
	ctx.Step(`^the delivery fee is (\d+)$`, tc.theDeliveryFeeIs)
	ctx.Step(`^the total amount is (\d+)$`, tc.theTotalAmountIs)
	ctx.Step(`^the total quantity is (\d+)$`, tc.theTotalQuantityIs)
	ctx.Step(`^the confirmation shows "([^"]*)" with total (\d+)$`, tc.theConfirmationShows)
	ctx.Step(`^the confirmation cannot be read a second time$`, tc.thereIsNoConfirmationToRead)
	ctx.Step(`^there is no confirmation to read$`, tc.thereIsNoConfirmationToRead)
	ctx.Step(`^the cart holds only "([^"]*)"$`, tc.theCartHoldsOnly)
	ctx.Step(`^the cart holds (\d+) lines$`, tc.theCartHoldsLines)
	ctx.Step(`^the submission fails with "([^"]*)"$`, tc.theSubmissionFailsWith)
	ctx.Step(`^no order exists upstream$`, tc.noOrderExistsUpstream)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
