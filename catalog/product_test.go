package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-catalog-admin/errs"
)

func validInput() ProductInput {
	return ProductInput{
		Title:       "Pixel 9",
		Price:       699,
		Description: "A phone from Google",
		Category:    "smartphones",
		ImageURL:    "https://cdn.example.com/pixel.png",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
		msg    string
	}{
		{"short title", func(in *ProductInput) { in.Title = "P" }, "title", "Title is required"},
		{"zero price", func(in *ProductInput) { in.Price = 0 }, "price", "Price must be > 0"},
		{"negative price", func(in *ProductInput) { in.Price = -3 }, "price", "Price must be > 0"},
		{"short description", func(in *ProductInput) { in.Description = "nice" }, "description", "Description is required"},
		{"missing category", func(in *ProductInput) { in.Category = "" }, "category", "Category is required"},
		{"bad image url", func(in *ProductInput) { in.ImageURL = "not a url" }, "imageUrl", "Please enter a valid image URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindValidation))
			assert.Contains(t, errs.Message(err), tt.msg)
		})
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validInput().Validate())
}

func TestValidate_ReportsEveryField(t *testing.T) {
	err := ProductInput{}.Validate()
	require.Error(t, err)
	for _, msg := range []string{"Title is required", "Price must be > 0", "Description is required", "Category is required", "Please enter a valid image URL"} {
		assert.Contains(t, errs.Message(err), msg)
	}
}

func TestNormalize(t *testing.T) {
	in := ProductInput{Title: "  Pixel  ", Description: " d ", Category: "\tphones\n", ImageURL: " https://a/b.png "}
	got := in.Normalize()

	assert.Equal(t, "Pixel", got.Title)
	assert.Equal(t, "d", got.Description)
	assert.Equal(t, "phones", got.Category)
	assert.Equal(t, "https://a/b.png", got.ImageURL)
	assert.Equal(t, "  Pixel  ", in.Title, "the receiver is a copy")
}

func TestWire(t *testing.T) {
	w := validInput().wire()
	assert.Equal(t, "https://cdn.example.com/pixel.png", w.Thumbnail)
	assert.Equal(t, []string{"https://cdn.example.com/pixel.png"}, w.Images)
}
