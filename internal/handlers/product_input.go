package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"shopguide/internal/models"
	"shopguide/internal/store"
)

var validate = validator.New()

// ProductInput is a create or update request after parsing. Each XxxSet flag records
// whether the client sent the field at all, so updates only touch what was submitted.
type ProductInput struct {
	Title            string
	TitleSet         bool
	Description      string
	DescriptionSet   bool
	Price            string
	PriceSet         bool
	Link             string
	LinkSet          bool
	Category         string
	CategorySet      bool
	Tags             models.Tags
	TagsSet          bool
	IsTopPick        bool
	IsTopPickSet     bool
	Rank             int
	RankSet          bool
	IsActive         bool
	IsActiveSet      bool
	AffiliateCode    string
	AffiliateCodeSet bool
	// Image is a URL or glyph sent as text; Upload is a multipart file.
	Image       string
	ImageSet    bool
	Upload      *multipart.FileHeader
	RemoveImage bool
}

// productFields carries the validation rules; field names match ProductInput.
type productFields struct {
	Title         string `validate:"required,max=200"`
	Description   string `validate:"required,max=5000"`
	Price         string `validate:"required,max=50"`
	Link          string `validate:"required,url"`
	Category      string `validate:"required,oneof=Tech Beauty Wellness Home Fashion Fitness Lifestyle Other"`
	Rank          int    `validate:"gte=0"`
	AffiliateCode string `validate:"max=100"`
}

type productRequest struct {
	Title         *string      `json:"title"`
	Description   *string      `json:"description"`
	Price         *flexString  `json:"price"`
	Link          *string      `json:"link"`
	Category      *string      `json:"category"`
	Tags          *models.Tags `json:"tags"`
	IsTopPick     *bool        `json:"isTopPick"`
	Rank          *int         `json:"rank"`
	IsActive      *bool        `json:"isActive"`
	AffiliateCode *string      `json:"affiliateCode"`
	Image         *string      `json:"image"`
	RemoveImage   *bool        `json:"removeImage"`
}

// flexString accepts a JSON string or number; prices arrive both ways.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or number")
	}
	*f = flexString(n.String())
	return nil
}

func parseProductRequest(c *gin.Context) (ProductInput, error) {
	contentType := c.ContentType()
	var (
		input ProductInput
		err   error
	)
	switch contentType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		input, err = parseProductForm(c)
	default:
		input, err = parseProductJSON(c)
	}
	if err != nil {
		return ProductInput{}, err
	}

	if removeRaw := strings.TrimSpace(c.Query("removeImage")); removeRaw != "" {
		parsed, err := parseBoolValue(removeRaw)
		if err != nil {
			return ProductInput{}, fmt.Errorf("removeImage must be boolean")
		}
		input.RemoveImage = input.RemoveImage || parsed
	}
	return input, nil
}

func parseProductForm(c *gin.Context) (ProductInput, error) {
	if c.ContentType() == "multipart/form-data" {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			return ProductInput{}, err
		}
	}

	input := ProductInput{}

	if value, ok := c.GetPostForm("title"); ok {
		input.Title, input.TitleSet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description, input.DescriptionSet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("price"); ok {
		input.Price, input.PriceSet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("link"); ok {
		input.Link, input.LinkSet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("category"); ok {
		input.Category, input.CategorySet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("affiliateCode"); ok {
		input.AffiliateCode, input.AffiliateCodeSet = strings.TrimSpace(value), true
	}
	if value, ok := c.GetPostForm("image"); ok && strings.TrimSpace(value) != "" {
		input.Image, input.ImageSet = strings.TrimSpace(value), true
	}

	if values, ok := c.GetPostFormArray("tags"); ok {
		if len(values) == 1 {
			input.Tags = models.ParseTags(values[0])
		} else {
			input.Tags = models.NormalizeTags(values)
		}
		input.TagsSet = true
	}

	if value, ok := c.GetPostForm("rank"); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			trimmed = "0"
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return ProductInput{}, fmt.Errorf("rank must be an integer")
		}
		input.Rank, input.RankSet = parsed, true
	}

	var err error
	if input.IsTopPick, input.IsTopPickSet, err = formBool(c, "isTopPick"); err != nil {
		return ProductInput{}, err
	}
	if input.IsActive, input.IsActiveSet, err = formBool(c, "isActive"); err != nil {
		return ProductInput{}, err
	}
	if input.RemoveImage, _, err = formBool(c, "removeImage"); err != nil {
		return ProductInput{}, err
	}

	file, err := c.FormFile("image")
	if err == nil {
		input.Upload = file
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return ProductInput{}, err
	}

	return input, nil
}

// formBool reads the last submitted value so a hidden "false" followed by a checked
// checkbox resolves to true.
func formBool(c *gin.Context, key string) (bool, bool, error) {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return false, false, nil
	}
	parsed, err := parseBoolValue(values[len(values)-1])
	if err != nil {
		return false, false, fmt.Errorf("%s must be boolean", key)
	}
	return parsed, true, nil
}

func parseProductJSON(c *gin.Context) (ProductInput, error) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ProductInput{}, fmt.Errorf("invalid body: %w", err)
	}

	input := ProductInput{}
	if req.Title != nil {
		input.Title, input.TitleSet = strings.TrimSpace(*req.Title), true
	}
	if req.Description != nil {
		input.Description, input.DescriptionSet = strings.TrimSpace(*req.Description), true
	}
	if req.Price != nil {
		input.Price, input.PriceSet = strings.TrimSpace(string(*req.Price)), true
	}
	if req.Link != nil {
		input.Link, input.LinkSet = strings.TrimSpace(*req.Link), true
	}
	if req.Category != nil {
		input.Category, input.CategorySet = strings.TrimSpace(*req.Category), true
	}
	if req.Tags != nil {
		input.Tags, input.TagsSet = models.NormalizeTags(*req.Tags), true
	}
	if req.IsTopPick != nil {
		input.IsTopPick, input.IsTopPickSet = *req.IsTopPick, true
	}
	if req.Rank != nil {
		input.Rank, input.RankSet = *req.Rank, true
	}
	if req.IsActive != nil {
		input.IsActive, input.IsActiveSet = *req.IsActive, true
	}
	if req.AffiliateCode != nil {
		input.AffiliateCode, input.AffiliateCodeSet = strings.TrimSpace(*req.AffiliateCode), true
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		input.Image, input.ImageSet = strings.TrimSpace(*req.Image), true
	}
	if req.RemoveImage != nil {
		input.RemoveImage = *req.RemoveImage
	}
	return input, nil
}

func (in ProductInput) fields() productFields {
	category := in.Category
	if parsed, ok := models.ParseCategory(category); ok {
		category = string(parsed)
	}
	return productFields{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		Link:          in.Link,
		Category:      category,
		Rank:          in.Rank,
		AffiliateCode: in.AffiliateCode,
	}
}

// Validate checks every rule on create and only the submitted fields on update.
func (in ProductInput) Validate(create bool) error {
	fields := in.fields()
	if create {
		return validate.Struct(fields)
	}

	submitted := make([]string, 0, 7)
	for name, set := range map[string]bool{
		"Title":         in.TitleSet,
		"Description":   in.DescriptionSet,
		"Price":         in.PriceSet,
		"Link":          in.LinkSet,
		"Category":      in.CategorySet,
		"Rank":          in.RankSet,
		"AffiliateCode": in.AffiliateCodeSet,
	} {
		if set {
			submitted = append(submitted, name)
		}
	}
	if len(submitted) == 0 {
		return nil
	}
	return validate.StructPartial(fields, submitted...)
}

func (in ProductInput) category() models.Category {
	category, _ := models.ParseCategory(in.Category)
	return category
}

// NewProduct builds the document for a create; image fields are filled by the caller.
func (in ProductInput) NewProduct() models.Product {
	product := models.Product{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		Link:          in.Link,
		Category:      in.category(),
		Image:         models.DefaultImage,
		Tags:          models.Tags{},
		IsTopPick:     in.IsTopPickSet && in.IsTopPick,
		Rank:          in.Rank,
		IsActive:      true,
		AffiliateCode: in.AffiliateCode,
	}
	if in.TagsSet {
		product.Tags = in.Tags
	}
	if in.IsActiveSet {
		product.IsActive = in.IsActive
	}
	if in.ImageSet {
		product.Image = in.Image
	}
	return product
}

// Patch converts the submitted fields; image fields are filled by the caller.
func (in ProductInput) Patch() store.ProductPatch {
	var patch store.ProductPatch
	if in.TitleSet {
		patch.Title = &in.Title
	}
	if in.DescriptionSet {
		patch.Description = &in.Description
	}
	if in.PriceSet {
		patch.Price = &in.Price
	}
	if in.LinkSet {
		patch.Link = &in.Link
	}
	if in.CategorySet {
		category := in.category()
		patch.Category = &category
	}
	if in.TagsSet {
		tags := in.Tags
		patch.Tags = &tags
	}
	if in.IsTopPickSet {
		patch.IsTopPick = &in.IsTopPick
	}
	if in.RankSet {
		patch.Rank = &in.Rank
	}
	if in.IsActiveSet {
		patch.IsActive = &in.IsActive
	}
	if in.AffiliateCodeSet {
		patch.AffiliateCode = &in.AffiliateCode
	}
	if in.ImageSet {
		image, key := in.Image, ""
		patch.Image, patch.ImageKey = &image, &key
	}
	return patch
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
