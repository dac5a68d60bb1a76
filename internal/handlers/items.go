package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/dto"
	apierrors "github.com/yukikurage/lost-and-found-api/internal/errors"
	"github.com/yukikurage/lost-and-found-api/internal/middleware"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/utils"
)

// TotalCountHeader carries the number of items matching a listing.
const TotalCountHeader = "X-Total-Count"

type ItemHandler struct {
	itemService *services.ItemService
	images      ImageURLResolver
}

func NewItemHandler(itemService *services.ItemService, images ImageURLResolver) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		images:      images,
	}
}

type createItemRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Location    string `json:"location" form:"location"`
	Status      string `json:"status" form:"status"`
}

type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// CreateItem reports a lost or found item. Accepts JSON, or multipart form
// data with an optional "image" file.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req createItemRequest
	input := services.CreateItemInput{OwnerID: userID}

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			apierrors.BadRequest(c, "Invalid form data")
			return
		}
		upload, closeUpload, err := imageUpload(c)
		if err != nil {
			apierrors.BadRequest(c, "Invalid image upload")
			return
		}
		defer closeUpload()
		input.Image = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input.Title = req.Title
	input.Description = req.Description
	input.Category = req.Category
	input.Location = req.Location
	input.Status = req.Status

	item, err := h.itemService.CreateItem(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToItemDTO(*item, resolverFor(c, h.images)))
}

// ListItems returns items, newest first. Public unless mine=true.
func (h *ItemHandler) ListItems(c *gin.Context) {
	input := services.ListItemsInput{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}

	if mine := c.Query("mine"); mine != "" {
		onlyMine, err := strconv.ParseBool(mine)
		if err != nil {
			apierrors.BadRequest(c, "mine must be true or false")
			return
		}
		if onlyMine {
			userID, exists := middleware.GetUserID(c)
			if !exists {
				apierrors.Unauthorized(c, "Authentication required to list your own items")
				return
			}
			input.OwnerID = &userID
		}
	}

	if utils.PaginationRequested(c) {
		params := utils.GetPaginationParams(c)
		input.Page = params.Page
		input.PageSize = params.Limit
	}

	items, total, err := h.itemService.ListItems(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(TotalCountHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, dto.ToItemDTOs(items, resolverFor(c, h.images)))
}

// GetItem returns one item and counts the view.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	item, err := h.itemService.ViewItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToItemDTO(*item, resolverFor(c, h.images)))
}

// UpdateItem partially updates an item owned by the caller.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	var input services.UpdateItemInput
	if isMultipart(c) {
		input = services.UpdateItemInput{
			Title:       optionalForm(c, "title"),
			Description: optionalForm(c, "description"),
			Category:    optionalForm(c, "category"),
			Location:    optionalForm(c, "location"),
			Status:      optionalForm(c, "status"),
		}
		upload, closeUpload, err := imageUpload(c)
		if err != nil {
			apierrors.BadRequest(c, "Invalid image upload")
			return
		}
		defer closeUpload()
		input.Image = upload
	} else {
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
		input = services.UpdateItemInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Location:    req.Location,
			Status:      req.Status,
		}
	}

	if input.Status != nil && strings.TrimSpace(*input.Status) == "" {
		input.Status = nil
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), itemID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToItemDTO(*item, resolverFor(c, h.images)))
}

// DeleteItem deletes an item owned by the caller.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	if err := h.itemService.DeleteItem(c.Request.Context(), itemID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item deleted successfully"})
}
