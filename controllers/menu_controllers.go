package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Menu.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	item, err := mc.Menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", item)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req services.MenuInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := mc.Menu.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	var req services.MenuInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := mc.Menu.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	if err := mc.Menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}
