package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rafi99769/ai-agent-development-course/rag"
)

// Product is one record of the product catalog CSV.
type Product struct {
	ID          int
	Name        string
	Category    string
	Brand       string
	Price       float64
	Description string
}

// LoadProductCatalog reads a catalog CSV with a header row of
// id,name,category,brand,price,description.
func LoadProductCatalog(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog csv: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("catalog csv is empty")
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "name", "category", "brand", "price", "description"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("catalog csv missing column %q", required)
		}
	}

	products := make([]Product, 0, len(records)-1)
	for i, rec := range records[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(rec[col["id"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[col["price"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price: %w", i+2, err)
		}
		products = append(products, Product{
			ID:          id,
			Name:        rec[col["name"]],
			Category:    rec[col["category"]],
			Brand:       rec[col["brand"]],
			Price:       price,
			Description: rec[col["description"]],
		})
	}
	return products, nil
}

// Document converts a product to a rag document with a rich text body for
// embedding and the structured fields kept in metadata.
func (p Product) Document() rag.Document {
	content := fmt.Sprintf("Product: %s\nCategory: %s\nBrand: %s\nDescription: %s\nPrice: $%.2f",
		p.Name, p.Category, p.Brand, p.Description, p.Price)
	return rag.Document{
		ID:      fmt.Sprintf("product_%d", p.ID),
		Content: content,
		Metadata: map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"category":    p.Category,
			"brand":       p.Brand,
			"price":       p.Price,
			"description": p.Description,
		},
	}
}

// SearchProductsTool finds catalog products relevant to a natural-language
// query via a rag retriever.
type SearchProductsTool struct {
	Retriever *rag.Retriever
}

// NewSearchProductsTool creates a SearchProductsTool over the retriever.
func NewSearchProductsTool(retriever *rag.Retriever) *SearchProductsTool {
	return &SearchProductsTool{Retriever: retriever}
}

func (t *SearchProductsTool) Name() string {
	return "search_products"
}

func (t *SearchProductsTool) Description() string {
	return "Search for products in the e-commerce catalog. " +
		"Input is a natural language query about products, " +
		"for example `wireless headphones` or `running shoes`. " +
		"Returns the top product matches with name, price, category, brand and description."
}

func (t *SearchProductsTool) Call(ctx context.Context, input string) (string, error) {
	results, err := t.Retriever.GetRelevantDocuments(ctx, input)
	if err != nil {
		return "", fmt.Errorf("product search failed: %w", err)
	}
	if len(results) == 0 {
		return "No products found matching your query.", nil
	}

	var sb strings.Builder
	for i, res := range results {
		md := res.Document.Metadata
		price, _ := md["price"].(float64)
		sb.WriteString(fmt.Sprintf("%d. %s\n   Price: $%.2f\n   Category: %s\n   Brand: %s\n   Description: %s\n\n",
			i+1, stringMeta(md, "name"), price,
			stringMeta(md, "category"), stringMeta(md, "brand"), stringMeta(md, "description")))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func stringMeta(md map[string]any, key string) string {
	if s, ok := md[key].(string); ok && s != "" {
		return s
	}
	return "N/A"
}

// CreateOrderTool creates an order for the current customer. Order ids
// are ORD- followed by a timestamp.
type CreateOrderTool struct {
	now func() time.Time
}

// NewCreateOrderTool creates a CreateOrderTool.
func NewCreateOrderTool() *CreateOrderTool {
	return &CreateOrderTool{now: time.Now}
}

func (t *CreateOrderTool) Name() string {
	return "create_order"
}

func (t *CreateOrderTool) Description() string {
	return "Create an order with the user's information. " +
		"Use this tool when the user wants to confirm their order or checkout. " +
		"Input format: `<full name>, <email address>`."
}

func (t *CreateOrderTool) Call(ctx context.Context, input string) (string, error) {
	name, email, err := parseOrderInput(input)
	if err != nil {
		return "", err
	}

	orderID := "ORD-" + t.now().Format("20060102150405")
	return fmt.Sprintf("Order created successfully!\nOrder ID: %s\nCustomer: %s\nEmail: %s\nThank you for your order!",
		orderID, name, email), nil
}

func parseOrderInput(input string) (name, email string, err error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected input `<name>, <email>`, got %q", input)
	}
	name = strings.TrimSpace(parts[0])
	email = strings.TrimSpace(parts[1])
	if name == "" || !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("expected input `<name>, <email>`, got %q", input)
	}
	return name, email, nil
}

// ListProductsTool renders the whole catalog as a markdown table.
type ListProductsTool struct {
	Catalog []Product
}

// NewListProductsTool creates a ListProductsTool over a loaded catalog.
func NewListProductsTool(catalog []Product) *ListProductsTool {
	return &ListProductsTool{Catalog: catalog}
}

func (t *ListProductsTool) Name() string {
	return "list_products"
}

func (t *ListProductsTool) Description() string {
	return "List all products in the shop including their price, category and brand. Input is ignored."
}

func (t *ListProductsTool) Call(ctx context.Context, input string) (string, error) {
	if len(t.Catalog) == 0 {
		return "The catalog is empty.", nil
	}

	var sb strings.Builder
	sb.WriteString("| ID | Name | Category | Brand | Price | Description |\n")
	sb.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, p := range t.Catalog {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | $%.2f | %s |\n",
			p.ID, p.Name, p.Category, p.Brand, p.Price, p.Description))
	}
	return sb.String(), nil
}
