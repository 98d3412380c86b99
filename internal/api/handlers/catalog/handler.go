package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogcore "meal-planner-api/internal/core/catalog"
	"meal-planner-api/internal/infrastructure/cache"
	"meal-planner-api/internal/pkg/common"
)

// CachePrefix namespaces catalog responses in the read cache. Writes
// invalidate the whole namespace.
const CachePrefix = "catalog"

// Handler serves the ingredient, meal and taxonomy catalog.
type Handler struct {
	ingredients *catalogcore.IngredientRepository
	meals       *catalogcore.MealRepository
	taxonomy    *catalogcore.TaxonomyRepository
	cache       *cache.Store
}

// NewHandler creates a catalog handler.
func NewHandler(
	ingredients *catalogcore.IngredientRepository,
	meals *catalogcore.MealRepository,
	taxonomy *catalogcore.TaxonomyRepository,
	cacheStore *cache.Store,
) *Handler {
	return &Handler{
		ingredients: ingredients,
		meals:       meals,
		taxonomy:    taxonomy,
		cache:       cacheStore,
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return common.ValidatePagination(page, limit)
}

func (h *Handler) invalidate(c *gin.Context) {
	h.cache.DeletePattern(c.Request.Context(), CachePrefix+":*")
}

// --- ingredients ---

// ListIngredients returns one catalog page.
func (h *Handler) ListIngredients(c *gin.Context) {
	page, limit := pageParams(c)
	p := common.NewPagination(page, limit, 0)

	items, total, err := h.ingredients.List(c.Request.Context(), p)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OKPaginated("ingredients", items, common.NewPagination(page, limit, total)))
}

// GetIngredient returns one ingredient by id.
func (h *Handler) GetIngredient(c *gin.Context) {
	item, err := h.ingredients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("ingredient", item))
}

// CreateIngredient inserts an ingredient.
func (h *Handler) CreateIngredient(c *gin.Context) {
	var item catalogcore.Ingredient
	if err := c.ShouldBindJSON(&item); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}
	if err := h.ingredients.Create(c.Request.Context(), &item); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, common.OK("ingredient created", item))
}

type ingredientUpdateRequest struct {
	Name     *string  `json:"name"`
	Calories *float64 `json:"calories"`
	Unit     *string  `json:"unit"`
	Type     *string  `json:"type"`
	Image    *string  `json:"image"`
}

// UpdateIngredient applies a partial update.
func (h *Handler) UpdateIngredient(c *gin.Context) {
	var in ingredientUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Calories != nil {
		set["calories"] = *in.Calories
	}
	if in.Unit != nil {
		set["unit"] = *in.Unit
	}
	if in.Type != nil {
		set["type"] = *in.Type
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if len(set) == 0 {
		common.RespondError(c, common.NewValidationError("no updatable fields in request"))
		return
	}

	item, err := h.ingredients.Update(c.Request.Context(), c.Param("id"), set)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, common.OK("ingredient updated", item))
}

// DeleteIngredient removes an ingredient.
func (h *Handler) DeleteIngredient(c *gin.Context) {
	if err := h.ingredients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, common.OK("ingredient deleted", nil))
}

// --- meals ---

type mealRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients" binding:"required"`
	Instructions []string `json:"instructions"`
	Image        string   `json:"image"`
	Category     string   `json:"category" binding:"required"`
	SubCategory  string   `json:"subCategory" binding:"required"`
	DietType     string   `json:"dietType" binding:"required"`
	TotalKcal    int      `json:"totalKcal" binding:"required"`
	Tags         []string `json:"tag"`
	MealTime     []string `json:"mealTime"`
	Rating       float64  `json:"rating"`
}

// ListMeals returns one catalog page.
func (h *Handler) ListMeals(c *gin.Context) {
	page, limit := pageParams(c)
	p := common.NewPagination(page, limit, 0)

	items, total, err := h.meals.List(c.Request.Context(), p)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OKPaginated("meals", items, common.NewPagination(page, limit, total)))
}

// GetMeal returns one meal by id.
func (h *Handler) GetMeal(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid meal id"))
		return
	}
	item, err := h.meals.FindByID(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("meal", item))
}

// CreateMeal inserts a meal. Ingredient and taxonomy references may be
// ids or unique names; all are resolved to canonical ids before the
// write so new records never reintroduce mixed representations.
func (h *Handler) CreateMeal(c *gin.Context) {
	var in mealRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()

	refs := make([]interface{}, 0, len(in.Ingredients))
	for _, ref := range in.Ingredients {
		id, err := h.ingredients.ResolveRef(ctx, ref)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		refs = append(refs, id)
	}

	categoryID, err := h.taxonomy.ResolveCategoryRef(ctx, in.Category)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	subCategoryID, err := h.taxonomy.ResolveSubCategoryRef(ctx, in.SubCategory)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	meal := &catalogcore.Meal{
		Name:         in.Name,
		Description:  in.Description,
		Ingredients:  refs,
		Instructions: in.Instructions,
		Image:        in.Image,
		Category:     categoryID,
		SubCategory:  subCategoryID,
		DietType:     in.DietType,
		TotalKcal:    in.TotalKcal,
		Tags:         in.Tags,
		MealTime:     in.MealTime,
		Rating:       in.Rating,
	}
	if err := h.meals.Create(ctx, meal); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, common.OK("meal created", meal))
}

type mealUpdateRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Instructions *[]string `json:"instructions"`
	Image        *string   `json:"image"`
	DietType     *string   `json:"dietType"`
	TotalKcal    *int      `json:"totalKcal"`
	Tags         *[]string `json:"tag"`
	MealTime     *[]string `json:"mealTime"`
	Rating       *float64  `json:"rating"`
}

// UpdateMeal applies a partial update to mutable meal fields.
func (h *Handler) UpdateMeal(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid meal id"))
		return
	}

	var in mealUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Instructions != nil {
		set["instructions"] = *in.Instructions
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.DietType != nil {
		if !catalogcore.ValidDietType(*in.DietType) {
			common.RespondError(c, common.NewValidationError("dietType must be one of WeightLoss, WeightGain, EatClean"))
			return
		}
		set["dietType"] = *in.DietType
	}
	if in.TotalKcal != nil {
		set["totalKcal"] = *in.TotalKcal
	}
	if in.Tags != nil {
		set["tag"] = *in.Tags
	}
	if in.MealTime != nil {
		set["mealTime"] = *in.MealTime
	}
	if in.Rating != nil {
		set["rating"] = *in.Rating
	}
	if len(set) == 0 {
		common.RespondError(c, common.NewValidationError("no updatable fields in request"))
		return
	}

	item, err := h.meals.Update(c.Request.Context(), id, set)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, common.OK("meal updated", item))
}

// DeleteMeal removes a meal.
func (h *Handler) DeleteMeal(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid meal id"))
		return
	}
	if err := h.meals.Delete(c.Request.Context(), id); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, common.OK("meal deleted", nil))
}

// --- taxonomy ---

// ListCategories returns all categories.
func (h *Handler) ListCategories(c *gin.Context) {
	items, err := h.taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("categories", items))
}

// CreateCategory inserts a category.
func (h *Handler) CreateCategory(c *gin.Context) {
	var item catalogcore.Category
	if err := c.ShouldBindJSON(&item); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}
	if err := h.taxonomy.CreateCategory(c.Request.Context(), &item); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, common.OK("category created", item))
}

// ListSubCategories returns sub-categories, optionally filtered by a
// category reference.
func (h *Handler) ListSubCategories(c *gin.Context) {
	ctx := c.Request.Context()

	var categoryID *primitive.ObjectID
	if ref := c.Query("category"); ref != "" {
		id, err := h.taxonomy.ResolveCategoryRef(ctx, ref)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		categoryID = &id
	}

	items, err := h.taxonomy.ListSubCategories(ctx, categoryID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("subCategories", items))
}

type subCategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// CreateSubCategory inserts a sub-category under an existing category.
func (h *Handler) CreateSubCategory(c *gin.Context) {
	var in subCategoryRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	categoryID, err := h.taxonomy.ResolveCategoryRef(ctx, in.Category)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	item := &catalogcore.SubCategory{Name: in.Name, Category: categoryID}
	if err := h.taxonomy.CreateSubCategory(ctx, item); err != nil {
		common.RespondError(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, common.OK("subCategory created", item))
}
