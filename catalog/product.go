package catalog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-catalog-admin/errs"
)

// Product is the catalog record. ID is assigned by the catalog service and never set locally.
type Product struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// ProductInput is the create/update form payload.
type ProductInput struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
}

// Normalize returns a copy with surrounding whitespace removed from text fields.
func (in ProductInput) Normalize() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

// Validate checks the payload the same way the product form does before submitting.
// The returned error is a VALIDATION_FAILURE carrying one field error per violation.
func (in ProductInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("Title is required"), validation.Length(2, 0).Error("Title is required")),
		validation.Field(&in.Price, validation.Required.Error("Price must be > 0"), validation.Min(0.0).Exclusive().Error("Price must be > 0")),
		validation.Field(&in.Description, validation.Required.Error("Description is required"), validation.Length(5, 0).Error("Description is required")),
		validation.Field(&in.Category, validation.Required.Error("Category is required"), validation.Length(2, 0).Error("Category is required")),
		validation.Field(&in.ImageURL, validation.Required.Error("Please enter a valid image URL"), is.URL.Error("Please enter a valid image URL")),
	)
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "invalid product: "+err.Error()).
		WithTextCode(string(errs.KindValidation))
}

// wirePayload is the body sent to the catalog service for create and update.
type wirePayload struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
}

func (in ProductInput) wire() wirePayload {
	return wirePayload{
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Category:    in.Category,
		Thumbnail:   in.ImageURL,
		Images:      []string{in.ImageURL},
	}
}

// ListParams selects one page of the collection. An empty Search lists everything.
type ListParams struct {
	Search string
	Limit  int
	Skip   int
}

// ListResult is one page as returned by the catalog service.
type ListResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// DeleteResult is the catalog acknowledgement of a delete.
type DeleteResult struct {
	ID      int  `json:"id"`
	Deleted bool `json:"isDeleted"`
}
