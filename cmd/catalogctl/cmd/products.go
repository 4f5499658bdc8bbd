package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-catalog-admin/catalog"
	"github.com/goliatone/go-catalog-admin/errs"
	"github.com/goliatone/go-catalog-admin/mutation"
	"github.com/goliatone/go-catalog-admin/pkg/di"
	"github.com/goliatone/go-catalog-admin/query"
)

var (
	listSearch string
	listPage   int
	form       productFlags
)

// productFlags holds the product form flags. changed reports whether a flag was given.
type productFlags struct {
	title       string
	price       float64
	description string
	category    string
	image       string
	changed     func(name string) bool
}

// apply overwrites the fields of in whose flags were given.
func (f productFlags) apply(in catalog.ProductInput) catalog.ProductInput {
	changed := f.changed
	if changed == nil {
		changed = func(string) bool { return true }
	}
	if changed("title") {
		in.Title = f.title
	}
	if changed("price") {
		in.Price = f.price
	}
	if changed("description") {
		in.Description = f.description
	}
	if changed("category") {
		in.Category = f.category
	}
	if changed("image") {
		in.ImageURL = f.image
	}
	return in
}

var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"p"},
	Short:   "List and edit products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of products",
	Run: execute(func(ctx context.Context, w io.Writer, c *di.Container) int {
		return runList(ctx, w, c, listSearch, listPage)
	}),
}

var productsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withID(cmd, args, runGet)
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a product",
	Run: execute(func(ctx context.Context, w io.Writer, c *di.Container) int {
		return runAdd(ctx, w, c, form)
	}),
}

var productsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Update the given fields of a product",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f := form
		f.changed = func(name string) bool { return cmd.Flags().Changed(name) }
		withID(cmd, args, func(ctx context.Context, w io.Writer, c *di.Container, id int) int {
			return runEdit(ctx, w, c, id, f)
		})
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a product",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withID(cmd, args, runDelete)
	},
}

func init() {
	productsListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Search term")
	productsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")

	for _, c := range []*cobra.Command{productsAddCmd, productsEditCmd} {
		c.Flags().StringVar(&form.title, "title", "", "Product title")
		c.Flags().Float64Var(&form.price, "price", 0, "Price, greater than 0")
		c.Flags().StringVar(&form.description, "description", "", "Description")
		c.Flags().StringVar(&form.category, "category", "", "Category")
		c.Flags().StringVar(&form.image, "image", "", "Image URL")
	}

	productsCmd.AddCommand(productsListCmd, productsGetCmd, productsAddCmd, productsEditCmd, productsDeleteCmd)
	rootCmd.AddCommand(productsCmd)
}

func withID(cmd *cobra.Command, args []string, fn func(context.Context, io.Writer, *di.Container, int) int) {
	execute(func(ctx context.Context, w io.Writer, c *di.Container) int {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fail(w, errs.New(errs.KindValidation, fmt.Sprintf("Invalid product id '%s'", args[0])))
		}
		return fn(ctx, w, c, id)
	})(cmd, args)
}

// runList fetches and prints one page. The page becomes the active one.
func runList(ctx context.Context, w io.Writer, c *di.Container, search string, page int) int {
	if err := c.Session().Guard(); err != nil {
		return fail(w, err)
	}

	key := c.PageKey(search, page)
	c.SetActive(key)

	snap, err := c.Queries().Fetch(ctx, key)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, snap.Data)
		return exitOK
	}
	printPage(w, key, *snap.Data)
	return exitOK
}

// runGet prints one product.
func runGet(ctx context.Context, w io.Writer, c *di.Container, id int) int {
	if err := c.Session().Guard(); err != nil {
		return fail(w, err)
	}

	p, err := c.Catalog().Get(ctx, id)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, p)
		return exitOK
	}
	printProduct(w, p)
	return exitOK
}

// runAdd creates a product from the form flags.
func runAdd(ctx context.Context, w io.Writer, c *di.Container, f productFlags) int {
	if err := c.Session().Guard(); err != nil {
		return fail(w, err)
	}

	created, err := c.Create().Submit(ctx, f.apply(catalog.ProductInput{}))
	if err != nil {
		return failed(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, created)
	}
	return exitOK
}

// runEdit loads product id, applies the given flags and saves it.
func runEdit(ctx context.Context, w io.Writer, c *di.Container, id int, f productFlags) int {
	if err := c.Session().Guard(); err != nil {
		return fail(w, err)
	}

	current, err := c.Catalog().Get(ctx, id)
	if err != nil {
		return fail(w, err)
	}

	in := f.apply(inputOf(current))
	updated, err := c.Update().Submit(ctx, mutation.UpdateRequest{ID: id, Input: in})
	if err != nil {
		return failed(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, updated)
	}
	return exitOK
}

// runDelete removes product id.
func runDelete(ctx context.Context, w io.Writer, c *di.Container, id int) int {
	if err := c.Session().Guard(); err != nil {
		return fail(w, err)
	}

	res, err := c.Delete().Submit(ctx, id)
	if err != nil {
		return failed(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, res)
	}
	return exitOK
}

func inputOf(p catalog.Product) catalog.ProductInput {
	image := p.Thumbnail
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0]
	}
	return catalog.ProductInput{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    image,
	}
}

func printPage(w io.Writer, key query.Key, page query.Page) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", p.ID, p.Title, p.Price, p.Category)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nPage %d of %d (%d products)\n", key.PageNumber(), page.TotalPages(), page.Total)
}

func printProduct(w io.Writer, p catalog.Product) {
	fmt.Fprintf(w, `ID:          %d
Title:       %s
Price:       %.2f
Category:    %s
Description: %s
Image:       %s
`, p.ID, p.Title, p.Price, p.Category, p.Description, p.Thumbnail)
}
