package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo catalog and an admin account",
		Long: `Seed inserts the demo catalog when the products collection is empty.
With --admin-email it also creates that account as an admin, or promotes
it if it already exists.`,
		RunE: runSeed,
	}
)

func init() {
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "email of the admin account to create or promote")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for a newly created admin account")
	seedCmd.Flags().StringVar(&adminName, "admin-name", "Store Admin", "display name for a newly created admin account")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := store.NewMongo(client, cfg.Database)
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	n, err := SeedCatalog(ctx, db, time.Now())
	if err != nil {
		return err
	}
	slog.Info("catalog seeded", "inserted", n)

	if adminEmail != "" {
		user, err := EnsureAdmin(ctx, db, adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		slog.Info("admin account ready", "user_id", user.ID.Hex(), "email", user.Email)
	}
	return nil
}

func demoProduct(name, description string, price float64, category string, stock int, featured bool) models.Product {
	return models.Product{
		Name:          name,
		Description:   description,
		Price:         price,
		ImageURL:      models.DefaultImageURL,
		Category:      category,
		StockQuantity: stock,
		Featured:      featured,
	}
}

var demoCatalog = []models.Product{
	demoProduct("Azure Ceramic Vase", "A beautiful handcrafted ceramic vase in a stunning azure blue color. Perfect for displaying fresh or dried flowers.", 49.99, "living-room", 15, true),
	demoProduct("Sapphire Throw Pillow", "Add a touch of elegance to your sofa or bed with this luxurious sapphire blue throw pillow.", 29.99, "living-room", 25, true),
	demoProduct("Navy Blue Table Lamp", "A stylish navy blue table lamp with a brass base, perfect for your bedside table or office desk.", 79.99, "bedroom", 10, true),
	demoProduct("Teal Glass Candle Holder", "Create a warm ambiance with this teal glass candle holder, designed to complement any room decor.", 19.99, "living-room", 30, true),
	demoProduct("Indigo Wall Art", "Abstract indigo wall art that adds a sophisticated touch to your living space or office.", 89.99, "living-room", 8, false),
	demoProduct("Cobalt Blue Dinner Set", "A stunning 12-piece cobalt blue dinner set that will impress your guests at your next dinner party.", 129.99, "kitchen", 5, false),
	demoProduct("Sky Blue Bathroom Accessories", "Complete bathroom accessory set in a calming sky blue color, including soap dispenser, toothbrush holder, and more.", 39.99, "bathroom", 12, false),
	demoProduct("Royal Blue Throw Blanket", "Soft and cozy royal blue throw blanket, perfect for those chilly evenings on the couch.", 59.99, "bedroom", 18, false),
}

// SeedCatalog inserts the demo products when the catalog is empty and
// returns how many were inserted.
func SeedCatalog(ctx context.Context, products store.ProductStore, now time.Time) (int, error) {
	count, err := products.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		slog.Info("catalog already populated, skipping", "products", count)
		return 0, nil
	}
	for i, p := range demoCatalog {
		// Earlier entries are newer so the default sort keeps this order.
		p.CreatedAt = now.Add(-time.Duration(i) * time.Minute)
		p.UpdatedAt = p.CreatedAt
		if err := products.InsertProduct(ctx, &p); err != nil {
			return i, fmt.Errorf("insert %q: %w", p.Name, err)
		}
	}
	return len(demoCatalog), nil
}

// EnsureAdmin creates an admin account for email, or promotes and
// reactivates the existing one.
func EnsureAdmin(ctx context.Context, users store.UserStore, name, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role, status := models.RoleAdmin, models.UserActive

	existing, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		return users.UpdateUser(ctx, existing.ID, store.UserUpdate{Role: &role, Status: &status})
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if len(password) < 6 {
		return models.User{}, errors.New("--admin-password of at least 6 characters is required to create an admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Name: name, Email: email, Password: string(hash), Role: role, Status: status}
	if err := users.InsertUser(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("insert admin: %w", err)
	}
	return user, nil
}
