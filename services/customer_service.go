package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/utils"
)

// TableLogin is what a customer types to join a table.
type TableLogin struct {
	TableID      string `json:"table_id"`
	CustomerName string `json:"customer_name"`
	Password     string `json:"password"`
}

func (l TableLogin) empty() bool {
	return l.TableID == "" && l.CustomerName == "" && l.Password == ""
}

type CartLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

// CustomerService is the customer side of table sessions. Credentials are
// cached per client after a successful login and reused until the table
// session they point at is no longer the live one.
type CustomerService struct {
	sessions *SessionManager
	orders   *OrderEngine
	bills    *BillService
	menu     *MenuService
	cache    CredentialCache

	Now func() time.Time
}

func NewCustomerService(sessions *SessionManager, orders *OrderEngine, bills *BillService, menu *MenuService, cache CredentialCache) *CustomerService {
	return &CustomerService{
		sessions: sessions,
		orders:   orders,
		bills:    bills,
		menu:     menu,
		cache:    cache,
		Now:      time.Now,
	}
}

// Login validates the table password and caches the resulting credentials
// for clientID.
func (c *CustomerService) Login(ctx context.Context, clientID string, in TableLogin) (*Credentials, error) {
	in.TableID = strings.TrimSpace(in.TableID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if clientID == "" {
		return nil, validationError("client id is required")
	}
	if in.CustomerName == "" {
		return nil, validationError("customer name is required")
	}

	sessionID, err := c.sessions.Validate(ctx, in.TableID, in.Password)
	if err != nil {
		utils.InfoLogger.WithField("table_id", in.TableID).Info("table login rejected")
		return nil, err
	}

	creds := Credentials{
		TableID:      in.TableID,
		CustomerName: in.CustomerName,
		SessionID:    sessionID,
		CachedAt:     c.Now(),
	}
	if err := c.cache.Set(ctx, clientID, creds); err != nil {
		return nil, storeError("cache credentials", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   creds.TableID,
		"session_id": creds.SessionID,
	}).Info("customer joined table")
	return &creds, nil
}

// Current re-validates the cached credentials of clientID against the store.
// Stale credentials are dropped and reported as ErrStaleSession.
func (c *CustomerService) Current(ctx context.Context, clientID string) (*Credentials, error) {
	creds, err := c.cached(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: no table login", ErrAuth)
	}
	if _, err := c.sessions.Check(ctx, creds.TableID, creds.SessionID); err != nil {
		if errors.Is(err, ErrStaleSession) {
			c.forget(ctx, clientID, creds)
		}
		return nil, err
	}
	return creds, nil
}

func (c *CustomerService) Logout(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := c.cache.Delete(ctx, clientID); err != nil {
		return storeError("clear credentials", err)
	}
	return nil
}

func (c *CustomerService) cached(ctx context.Context, clientID string) (*Credentials, error) {
	if clientID == "" {
		return nil, nil
	}
	creds, err := c.cache.Get(ctx, clientID)
	if err != nil {
		return nil, storeError("load credentials", err)
	}
	return creds, nil
}

func (c *CustomerService) forget(ctx context.Context, clientID string, creds *Credentials) {
	if err := c.cache.Delete(ctx, clientID); err != nil {
		utils.ErrorLogger.Printf("failed to clear credentials for table %s: %v", creds.TableID, err)
		return
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   creds.TableID,
		"session_id": creds.SessionID,
	}).Info("stale customer credentials cleared")
}

// resolve returns the cached credentials, or logs in with fallback when
// nothing is cached yet.
func (c *CustomerService) resolve(ctx context.Context, clientID string, fallback TableLogin) (*Credentials, error) {
	creds, err := c.cached(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		return creds, nil
	}
	if fallback.empty() {
		return nil, fmt.Errorf("%w: table login required", ErrAuth)
	}
	if clientID == "" {
		sessionID, err := c.sessions.Validate(ctx, fallback.TableID, fallback.Password)
		if err != nil {
			return nil, err
		}
		return &Credentials{TableID: strings.TrimSpace(fallback.TableID), CustomerName: strings.TrimSpace(fallback.CustomerName), SessionID: sessionID}, nil
	}
	return c.Login(ctx, clientID, fallback)
}

// cartLines checks the cart and prices it from the menu.
func (c *CustomerService) cartLines(ctx context.Context, cart []CartLine) ([]models.OrderLine, error) {
	if len(cart) == 0 {
		return nil, validationError("order has no items")
	}
	ids := make([]string, 0, len(cart))
	for i, l := range cart {
		if l.MenuItemID == "" {
			return nil, validationError("item %d has no menu item id", i+1)
		}
		if l.Quantity < 1 {
			return nil, validationError("item %d: quantity must be at least 1", i+1)
		}
		ids = append(ids, l.MenuItemID)
	}

	menu, err := c.menu.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]models.OrderLine, 0, len(cart))
	for _, l := range cart {
		item, ok := menu[l.MenuItemID]
		if !ok {
			return nil, validationError("menu item %s does not exist", l.MenuItemID)
		}
		lines = append(lines, models.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   l.Quantity,
			Note:       strings.TrimSpace(l.Note),
		})
	}
	return lines, nil
}

// SubmitOrder places the cart for the client's table session.
func (c *CustomerService) SubmitOrder(ctx context.Context, clientID string, login TableLogin, cart []CartLine) (*models.Order, error) {
	lines, err := c.cartLines(ctx, cart)
	if err != nil {
		return nil, err
	}
	creds, err := c.resolve(ctx, clientID, login)
	if err != nil {
		return nil, err
	}

	order, err := c.orders.Submit(ctx, SubmitOrderInput{
		TableID:      creds.TableID,
		CustomerName: creds.CustomerName,
		SessionID:    creds.SessionID,
		Items:        lines,
	})
	if errors.Is(err, ErrStaleSession) {
		c.forget(ctx, clientID, creds)
	}
	return order, err
}

func (c *CustomerService) RequestBill(ctx context.Context, clientID string, login TableLogin) (*models.BillRequest, error) {
	creds, err := c.resolve(ctx, clientID, login)
	if err != nil {
		return nil, err
	}
	req, err := c.bills.RequestBill(ctx, creds.TableID, creds.CustomerName, creds.SessionID)
	if errors.Is(err, ErrStaleSession) {
		c.forget(ctx, clientID, creds)
	}
	return req, err
}

// MyOrders lists the orders of the client's current session.
func (c *CustomerService) MyOrders(ctx context.Context, clientID string) ([]models.Order, error) {
	creds, err := c.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return c.orders.ListBy(ctx, creds.TableID, creds.CustomerName, creds.SessionID)
}
