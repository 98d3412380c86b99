package recognition

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogcore "meal-planner-api/internal/core/catalog"
	"meal-planner-api/internal/core/recommend"
	"meal-planner-api/internal/core/vision"
	"meal-planner-api/internal/pkg/common"
)

// Handler serves the photo-to-meal recommendation flow.
type Handler struct {
	vision      *vision.Client
	ingredients *catalogcore.IngredientRepository
	ranker      *recommend.Ranker
	log         *zap.Logger
}

// NewHandler creates a recognition handler.
func NewHandler(visionClient *vision.Client, ingredients *catalogcore.IngredientRepository, ranker *recommend.Ranker, log *zap.Logger) *Handler {
	return &Handler{
		vision:      visionClient,
		ingredients: ingredients,
		ranker:      ranker,
		log:         log.Named("recognition-handler"),
	}
}

type recognizeJSONRequest struct {
	ImageURL string `json:"imageUrl"`
	DietType string `json:"dietType"`
	Limit    int    `json:"limit"`
}

type recognizeResponse struct {
	DetectedNames      []string                 `json:"detectedNames"`
	MatchedIngredients []catalogcore.Ingredient `json:"matchedIngredients"`
	Meals              []recommend.ScoredMeal   `json:"meals"`
	Note               string                   `json:"note,omitempty"`
}

// Recognize accepts a food photo (multipart "image" field) or an image
// URL (JSON body), detects ingredients on it, matches them against the
// catalog and ranks meal suggestions. Detecting nothing usable is a
// normal outcome and answers 200 with an explanatory note.
func (h *Handler) Recognize(c *gin.Context) {
	imageURL, imageData, mimeType, dietType, limit, err := h.parseRequest(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if dietType != "" && !catalogcore.ValidDietType(dietType) {
		common.RespondError(c, common.NewValidationError("dietType must be one of WeightLoss, WeightGain, EatClean"))
		return
	}

	ctx := c.Request.Context()

	names, err := h.vision.DetectIngredients(ctx, imageURL, imageData, mimeType)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if len(names) == 0 {
		c.JSON(http.StatusOK, common.OK("recognition completed", recognizeResponse{
			DetectedNames:      []string{},
			MatchedIngredients: []catalogcore.Ingredient{},
			Meals:              []recommend.ScoredMeal{},
			Note:               "no ingredients detected on the image",
		}))
		return
	}

	catalog, err := h.ingredients.FindAll(ctx)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	matched := recommend.Match(names, catalog)
	if len(matched) == 0 {
		h.log.Info("no catalog match for detected ingredients", zap.Strings("names", names))
		c.JSON(http.StatusOK, common.OK("recognition completed", recognizeResponse{
			DetectedNames:      names,
			MatchedIngredients: []catalogcore.Ingredient{},
			Meals:              []recommend.ScoredMeal{},
			Note:               "detected ingredients are not in the catalog",
		}))
		return
	}

	matchedIDs := make([]string, 0, len(matched))
	for _, ing := range matched {
		matchedIDs = append(matchedIDs, ing.ID)
	}

	meals, err := h.ranker.Rank(ctx, matchedIDs, dietType, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if meals == nil {
		meals = []recommend.ScoredMeal{}
	}

	c.JSON(http.StatusOK, common.OK("recognition completed", recognizeResponse{
		DetectedNames:      names,
		MatchedIngredients: matched,
		Meals:              meals,
	}))
}

// parseRequest accepts the two supported request shapes.
func (h *Handler) parseRequest(c *gin.Context) (imageURL string, imageData []byte, mimeType, dietType string, limit int, err error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, formErr := c.Request.FormFile("image")
		if formErr != nil {
			return "", nil, "", "", 0, common.NewValidationError("multipart field 'image' is required")
		}
		defer file.Close()

		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return "", nil, "", "", 0, common.NewValidationError("failed to read uploaded image")
		}

		dietType = c.PostForm("dietType")
		limit, _ = strconv.Atoi(c.PostForm("limit"))
		return "", data, header.Header.Get("Content-Type"), dietType, limit, nil
	}

	var in recognizeJSONRequest
	if bindErr := c.ShouldBindJSON(&in); bindErr != nil {
		return "", nil, "", "", 0, common.NewValidationError("either a multipart image or a JSON body with imageUrl is required")
	}
	if in.ImageURL == "" {
		return "", nil, "", "", 0, common.NewValidationError("imageUrl is required")
	}
	return in.ImageURL, nil, "", in.DietType, in.Limit, nil
}
