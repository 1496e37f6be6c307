package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

type MenuInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

func (in MenuInput) validate() (MenuInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return in, validationError("menu item name is required")
	}
	if in.Price < 0 {
		return in, validationError("menu item price must not be negative")
	}
	if in.Category == "" {
		in.Category = models.DefaultMenuCategoryName
	}
	in.Price = utils.RoundMoney(in.Price)
	return in, nil
}

// MenuCategory is one heading of the grouped menu.
type MenuCategory struct {
	Name  string            `json:"name"`
	Items []models.MenuItem `json:"items"`
}

type MenuService struct {
	store *store.Store
}

func NewMenuService(s *store.Store) *MenuService {
	return &MenuService{store: s}
}

func (m *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	items := make([]models.MenuItem, 0)
	if err := m.store.QueryOrdered(ctx, models.CollectionMenu, nil, "name asc", &items); err != nil {
		return nil, storeError("list menu", err)
	}
	return items, nil
}

// Grouped lists the menu by category.
func (m *MenuService) Grouped(ctx context.Context) ([]MenuCategory, error) {
	items, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return GroupMenu(items), nil
}

func (m *MenuService) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := m.store.Get(ctx, models.CollectionMenu, id, &item); err != nil {
		return nil, notFoundOr("load menu item", err, "menu item "+id)
	}
	return &item, nil
}

func (m *MenuService) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
	if _, err := m.store.Add(ctx, models.CollectionMenu, item); err != nil {
		return nil, storeError("create menu item", err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{"menu_item_id": item.ID, "name": item.Name}).Info("menu item created")
	return item, nil
}

func (m *MenuService) Update(ctx context.Context, id string, in MenuInput) (*models.MenuItem, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"name":        in.Name,
		"price":       in.Price,
		"description": in.Description,
		"category":    in.Category,
		"image_url":   in.ImageURL,
	}
	if err := m.store.Update(ctx, models.CollectionMenu, id, fields); err != nil {
		return nil, notFoundOr("update menu item", err, "menu item "+id)
	}
	return m.Get(ctx, id)
}

func (m *MenuService) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, models.CollectionMenu, id); err != nil {
		return storeError("delete menu item", err)
	}
	utils.InfoLogger.WithField("menu_item_id", id).Info("menu item deleted")
	return nil
}

// Lookup loads the given menu items keyed by id. Missing ids are simply
// absent from the result.
func (m *MenuService) Lookup(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	found := make([]models.MenuItem, 0, len(ids))
	if len(ids) > 0 {
		if err := m.store.Query(ctx, models.CollectionMenu, store.Filter{"id": ids}, &found); err != nil {
			return nil, storeError("lookup menu", err)
		}
	}
	byID := make(map[string]models.MenuItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	return byID, nil
}
