package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/constants"
	"github.com/yukikurage/lost-and-found-api/internal/dto"
	"github.com/yukikurage/lost-and-found-api/internal/middleware"
	"github.com/yukikurage/lost-and-found-api/internal/models"
	"github.com/yukikurage/lost-and-found-api/internal/services"
)

// Form surface paths.
const (
	WebRoot         = "/web/"
	WebLoginPath    = middleware.LoginPath
	WebRegisterPath = "/web/register"
	WebProfilePath  = "/web/profile"
	WebNewItemPath  = "/web/items/new"
)

// WebHandler serves the session-based form surface. Every mutation ends in a
// 303 redirect with a flash message; GET routes return the page data a
// template layer renders.
type WebHandler struct {
	authService *services.AuthService
	itemService *services.ItemService
	images      ImageURLResolver
}

func NewWebHandler(authService *services.AuthService, itemService *services.ItemService, images ImageURLResolver) *WebHandler {
	return &WebHandler{
		authService: authService,
		itemService: itemService,
		images:      images,
	}
}

// Flashes holds pending flash messages by category.
type Flashes struct {
	Success []string `json:"success"`
	Error   []string `json:"error"`
}

// PageUser identifies the logged-in visitor on a page.
type PageUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// PageData is the payload for list and detail pages.
type PageData struct {
	User       *PageUser     `json:"user"`
	Items      []dto.ItemDTO `json:"items,omitempty"`
	Item       *dto.ItemDTO  `json:"item,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Statuses   []string      `json:"statuses,omitempty"`
	Flashes    Flashes       `json:"flashes"`
}

func (h *WebHandler) redirect(c *gin.Context, location, category, message string) {
	session := sessions.Default(c)
	if message != "" {
		session.AddFlash(message, category)
	}
	_ = session.Save()
	c.Redirect(http.StatusSeeOther, location)
}

func popFlashes(c *gin.Context) Flashes {
	session := sessions.Default(c)
	flashes := Flashes{Success: []string{}, Error: []string{}}
	for _, f := range session.Flashes(constants.FlashSuccess) {
		if s, ok := f.(string); ok {
			flashes.Success = append(flashes.Success, s)
		}
	}
	for _, f := range session.Flashes(constants.FlashError) {
		if s, ok := f.(string); ok {
			flashes.Error = append(flashes.Error, s)
		}
	}
	_ = session.Save()
	return flashes
}

func (h *WebHandler) page(c *gin.Context) PageData {
	data := PageData{}
	if userID, ok := middleware.GetUserID(c); ok {
		data.User = &PageUser{ID: userID, Username: middleware.GetUsername(c)}
	}
	data.Flashes = popFlashes(c)
	return data
}

func itemPath(id uint64) string {
	return fmt.Sprintf("/web/items/%d", id)
}

// RegisterPage renders the registration form state, including any error
// left by a failed submission.
func (h *WebHandler) RegisterPage(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c))
}

// LoginPage renders the login form state.
func (h *WebHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c))
}

// Register handles the registration form.
func (h *WebHandler) Register(c *gin.Context) {
	_, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Role:     c.PostForm("role"),
	})
	if err != nil {
		h.redirect(c, WebRegisterPath, constants.FlashError, flashMessage(c, err))
		return
	}
	h.redirect(c, WebLoginPath, constants.FlashSuccess, "Registration successful. Please log in.")
}

// Login handles the login form and stores the issued token in the session.
func (h *WebHandler) Login(c *gin.Context) {
	token, user, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		h.redirect(c, WebLoginPath, constants.FlashError, flashMessage(c, err))
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.SessionKeyToken, token)
	h.redirect(c, WebRoot, constants.FlashSuccess, fmt.Sprintf("Welcome back, %s!", user.Username))
}

// Logout clears the session.
func (h *WebHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	h.redirect(c, WebRoot, constants.FlashSuccess, "You have been logged out.")
}

// Index lists items, optionally filtered by category and status.
// Also serves the search page.
func (h *WebHandler) Index(c *gin.Context) {
	items, _, err := h.itemService.ListItems(c.Request.Context(), services.ListItemsInput{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	})
	if err != nil {
		data := h.page(c)
		data.Flashes.Error = append(data.Flashes.Error, flashMessage(c, err))
		c.JSON(http.StatusInternalServerError, data)
		return
	}

	data := h.page(c)
	data.Items = dto.ToItemDTOs(items, resolverFor(c, h.images))
	data.Categories = models.KnownCategories
	c.JSON(http.StatusOK, data)
}

// ShowItem returns the detail page and counts the view.
func (h *WebHandler) ShowItem(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		h.redirect(c, WebRoot, constants.FlashError, "Item not found.")
		return
	}

	item, err := h.itemService.ViewItem(c.Request.Context(), itemID)
	if err != nil {
		h.redirect(c, WebRoot, constants.FlashError, flashMessage(c, err))
		return
	}

	data := h.page(c)
	itemDTO := dto.ToItemDTO(*item, resolverFor(c, h.images))
	data.Item = &itemDTO
	data.Statuses = statusNames()
	c.JSON(http.StatusOK, data)
}

// Profile lists the caller's own items.
func (h *WebHandler) Profile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	items, _, err := h.itemService.ListItems(c.Request.Context(), services.ListItemsInput{OwnerID: &userID})
	if err != nil {
		h.redirect(c, WebRoot, constants.FlashError, flashMessage(c, err))
		return
	}

	data := h.page(c)
	data.Items = dto.ToItemDTOs(items, resolverFor(c, h.images))
	c.JSON(http.StatusOK, data)
}

// NewItem returns the data for the report form.
func (h *WebHandler) NewItem(c *gin.Context) {
	data := h.page(c)
	data.Categories = models.KnownCategories
	data.Statuses = statusNames()
	c.JSON(http.StatusOK, data)
}

// CreateItem handles the report form.
func (h *WebHandler) CreateItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	input := services.CreateItemInput{
		OwnerID:     userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Location:    c.PostForm("location"),
		Status:      c.PostForm("status"),
	}
	if isMultipart(c) {
		upload, closeUpload, err := imageUpload(c)
		if err != nil {
			h.redirect(c, WebNewItemPath, constants.FlashError, "Invalid image upload.")
			return
		}
		defer closeUpload()
		input.Image = upload
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), input)
	if err != nil {
		h.redirect(c, WebNewItemPath, constants.FlashError, flashMessage(c, err))
		return
	}
	h.redirect(c, itemPath(item.ID), constants.FlashSuccess, "Item reported successfully.")
}

// UpdateStatus handles the status form on the detail page.
func (h *WebHandler) UpdateStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	itemID, ok := parseItemID(c)
	if !ok {
		h.redirect(c, WebRoot, constants.FlashError, "Item not found.")
		return
	}

	item, err := h.itemService.UpdateStatus(c.Request.Context(), itemID, userID, c.PostForm("status"))
	if err != nil {
		h.redirectAfterItemError(c, itemID, err)
		return
	}
	h.redirect(c, itemPath(itemID), constants.FlashSuccess, fmt.Sprintf("Status updated to %s.", item.Status))
}

// EditItem handles the edit form. Only submitted fields change.
func (h *WebHandler) EditItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	itemID, ok := parseItemID(c)
	if !ok {
		h.redirect(c, WebRoot, constants.FlashError, "Item not found.")
		return
	}

	input := services.UpdateItemInput{
		Title:       optionalForm(c, "title"),
		Description: optionalForm(c, "description"),
		Category:    optionalForm(c, "category"),
		Location:    optionalForm(c, "location"),
		Status:      optionalForm(c, "status"),
	}
	if input.Status != nil && *input.Status == "" {
		input.Status = nil
	}
	if isMultipart(c) {
		upload, closeUpload, err := imageUpload(c)
		if err != nil {
			h.redirect(c, itemPath(itemID), constants.FlashError, "Invalid image upload.")
			return
		}
		defer closeUpload()
		input.Image = upload
	}

	if _, err := h.itemService.UpdateItem(c.Request.Context(), itemID, userID, input); err != nil {
		h.redirectAfterItemError(c, itemID, err)
		return
	}
	h.redirect(c, itemPath(itemID), constants.FlashSuccess, "Item updated successfully.")
}

// DeleteItem handles the delete button.
func (h *WebHandler) DeleteItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	itemID, ok := parseItemID(c)
	if !ok {
		h.redirect(c, WebRoot, constants.FlashError, "Item not found.")
		return
	}

	if err := h.itemService.DeleteItem(c.Request.Context(), itemID, userID); err != nil {
		h.redirectAfterItemError(c, itemID, err)
		return
	}
	h.redirect(c, WebProfilePath, constants.FlashSuccess, "Item deleted successfully.")
}

// Flashes pops and returns pending flash messages.
func (h *WebHandler) Flashes(c *gin.Context) {
	c.JSON(http.StatusOK, popFlashes(c))
}

func (h *WebHandler) redirectAfterItemError(c *gin.Context, itemID uint64, err error) {
	location := itemPath(itemID)
	if _, lookupErr := h.itemService.GetItem(c.Request.Context(), itemID); lookupErr != nil {
		location = WebRoot
	}
	h.redirect(c, location, constants.FlashError, flashMessage(c, err))
}

func statusNames() []string {
	return []string{
		string(models.ItemStatusLost),
		string(models.ItemStatusFound),
		string(models.ItemStatusReturned),
	}
}
