package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/ngoctd/storefront/internal/api"
	"github.com/ngoctd/storefront/internal/config"
	"github.com/ngoctd/storefront/internal/logger"
	"github.com/ngoctd/storefront/internal/model"
	"github.com/ngoctd/storefront/internal/repository/file"
	"github.com/ngoctd/storefront/internal/repository/postgres"
	storage "github.com/ngoctd/storefront/internal/storage/minio"
	"github.com/ngoctd/storefront/internal/store"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
)

// app wires configuration, the API client and both stores for the command
// handlers. The CLI plays the role of the views: it only reads store
// snapshots and calls store actions.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	api    *api.Client
	auth   *store.Auth
	cart   *store.Cart

	closers []func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	a := &app{}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop from the terminal",
		Version:       fmt.Sprintf("%s (built %s)", buildVersion, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	root.AddCommand(
		productsCmd(a),
		reviewCmd(a),
		cartCmd(a),
		addressCmd(a),
		paymentCmd(a),
		loginCmd(a),
		firebaseLoginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		forgotPasswordCmd(a),
		resetPasswordCmd(a),
		profileCmd(a),
		checkoutCmd(a),
		ordersCmd(a),
		whoamiCmd(a),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		a.close()
		os.Exit(1)
	}
}

// setup loads configuration, opens the selected state backend and hydrates
// both stores before the first command handler reads them.
func (a *app) setup(ctx context.Context) error {
	// .env is optional; environment variables win when both are present.
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logger.New(cfg.LogLevel)

	state, err := a.openState(ctx)
	if err != nil {
		return err
	}

	if cfg.API.BaseURL != "" {
		client, err := api.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, a.logger)
		if err != nil {
			return err
		}
		a.api = client
	}

	a.auth = store.NewAuth(a.api, state, a.logger)
	a.cart = store.NewCart(a.api, state, a.logger)

	if err := a.auth.Hydrate(ctx); err != nil {
		return err
	}
	return a.cart.Hydrate(ctx)
}

func (a *app) openState(ctx context.Context) (model.StateStore, error) {
	switch a.cfg.State.Backend {
	case "file":
		repo, err := file.NewStateRepository(a.cfg.State.Dir)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		db, err := postgres.NewConnection(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres state backend: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewStateRepository(db), nil
	case "minio":
		client, err := minio.New(a.cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(a.cfg.Minio.AccessKey, a.cfg.Minio.SecretKey, ""),
			Secure: a.cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		state, err := storage.NewStateClient(ctx, client, a.cfg.Minio.Bucket)
		if err != nil {
			return nil, err
		}
		return state, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", a.cfg.State.Backend)
	}
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("failed to close state backend", "error", err.Error())
		}
	}
	a.closers = nil
}

// requireAPI guards commands that talk to the remote store API.
func (a *app) requireAPI() error {
	if a.api == nil {
		return fmt.Errorf("store api is not configured: set API_BASE_URL")
	}
	return nil
}

func productsCmd(a *app) *cobra.Command {
	var keyword, category string

	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "Browse the catalog or show one product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if len(args) == 1 {
				return a.showProduct(cmd.Context(), args[0])
			}

			products, err := a.api.ListProducts(cmd.Context(), keyword, category)
			if err != nil {
				return err
			}
			for _, p := range products {
				fmt.Printf("%-26s %-30s %12s  (stock %d)\n", p.ID, p.Name, formatVND(p.Price), p.CountInStock)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "search keyword")
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	return cmd
}

func (a *app) showProduct(ctx context.Context, id string) error {
	product, err := a.api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		fmt.Println("Product not found.")
		return nil
	}

	fmt.Printf("%s\n%s / %s\n%s\n", product.Name, product.Brand, product.Category, formatVND(product.Price))
	fmt.Printf("Rating %.1f (%d reviews), %d in stock\n", product.Rating, product.NumReviews, product.CountInStock)
	if product.Description != "" {
		fmt.Println(product.Description)
	}
	for _, r := range product.Reviews {
		fmt.Printf("  %.0f/5 %s: %s\n", r.Rating, r.Name, r.Comment)
	}
	return nil
}

func reviewCmd(a *app) *cobra.Command {
	var rating float64
	var comment string

	cmd := &cobra.Command{
		Use:   "review <product-id>",
		Short: "Leave a review on a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			session := a.auth.Session()
			if !session.Authenticated() {
				return fmt.Errorf("log in before reviewing a product")
			}

			message, err := a.api.CreateReview(cmd.Context(), session.Token, args[0], model.ReviewDraft{Rating: rating, Comment: comment})
			if err != nil {
				return err
			}
			fmt.Println(message)
			return nil
		},
	}
	cmd.Flags().Float64Var(&rating, "rating", 5, "rating from 1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "review text")
	return cmd
}

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if qty < 1 {
				return fmt.Errorf("quantity must be at least 1")
			}

			product, err := a.api.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("product %s does not exist", args[0])
			}
			// Stock ceiling is a view-level check; the store itself does
			// not clamp.
			if qty > product.CountInStock {
				return fmt.Errorf("only %d in stock", product.CountInStock)
			}

			if err := a.cart.AddToCart(cmd.Context(), *product, qty); err != nil {
				return err
			}
			fmt.Printf("Added %d × %s\n", qty, product.Name)
			return nil
		},
	}
	add.Flags().IntVar(&qty, "qty", 1, "quantity to add")

	rm := &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cart.RemoveFromCart(cmd.Context(), args[0])
		},
	}

	setQty := &cobra.Command{
		Use:   "set-qty <product-id> <quantity>",
		Short: "Set a line item's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number: %w", err)
			}
			return a.cart.UpdateQuantity(cmd.Context(), args[0], quantity)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart and totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.printCart()
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart, keeping address and payment method",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cart.ClearCart(cmd.Context())
		},
	}

	cmd.AddCommand(add, rm, setQty, show, clear)
	return cmd
}

func (a *app) printCart() {
	cart := a.cart.Cart()
	if len(cart.Items) == 0 {
		fmt.Println("Your cart is empty.")
		return
	}

	for _, item := range cart.Items {
		fmt.Printf("%-26s %-30s %3d × %12s = %12s\n",
			item.ProductID, item.Name, item.Quantity, formatVND(item.Price), formatVND(item.Price*int64(item.Quantity)))
	}
	fmt.Printf("%66s %12s\n", "Subtotal:", formatVND(cart.Subtotal()))
	fmt.Printf("%66s %12s\n", "Shipping:", formatVND(cart.ShippingFee()))
	fmt.Printf("%66s %12s\n", "Total:", formatVND(cart.Total()))
}

func addressCmd(a *app) *cobra.Command {
	var addr model.ShippingAddress

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Save the shipping address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr.FullName == "" || addr.Address == "" || addr.City == "" || addr.PhoneNumber == "" {
				return fmt.Errorf("all address fields are required")
			}
			return a.cart.SaveShippingAddress(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr.FullName, "name", "", "recipient full name")
	cmd.Flags().StringVar(&addr.Address, "street", "", "street address")
	cmd.Flags().StringVar(&addr.City, "city", "", "city")
	cmd.Flags().StringVar(&addr.PhoneNumber, "phone", "", "phone number")
	return cmd
}

func paymentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "payment <method>",
		Short: "Select the payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cart.SavePaymentMethod(cmd.Context(), args[0])
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in with email and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if err := a.auth.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", a.auth.Session().User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func firebaseLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "firebase-login <id-token>",
		Short: "Log in with a federated identity token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if err := a.auth.FirebaseLogin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", a.auth.Session().User.Name)
			return nil
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if err := a.auth.RegisterAndLogin(cmd.Context(), name, args[0], password); err != nil {
				return err
			}
			fmt.Printf("Welcome, %s\n", a.auth.Session().User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.auth.Logout(cmd.Context())
		},
	}
}

func forgotPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			res, err := a.api.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			return nil
		},
	}
}

func resetPasswordCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with the emailed reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			res, err := a.api.ResetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	var update api.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the logged-in user's profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			if update == (api.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update: pass --name, --email or --password")
			}
			if err := a.auth.UpdateProfile(cmd.Context(), update); err != nil {
				return err
			}
			fmt.Printf("Profile updated for %s\n", a.auth.Session().User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "new display name")
	cmd.Flags().StringVar(&update.Email, "email", "", "new email")
	cmd.Flags().StringVar(&update.Password, "password", "", "new password")
	return cmd
}

func checkoutCmd(a *app) *cobra.Command {
	var guestEmail, guestName string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order with the current cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}

			session := a.auth.Session()
			var guest *model.GuestDetails
			if !session.Authenticated() {
				if guestEmail == "" || guestName == "" {
					return fmt.Errorf("log in first, or pass --guest-email and --guest-name")
				}
				guest = &model.GuestDetails{Email: guestEmail, FullName: guestName}
			}

			a.printCart()
			order, err := a.cart.PlaceOrder(cmd.Context(), session, guest)
			if err != nil {
				return err
			}
			fmt.Printf("Order %s placed, %s due on delivery.\n", order.ID, formatVND(order.TotalAmount))
			return nil
		},
	}
	cmd.Flags().StringVar(&guestEmail, "guest-email", "", "email for guest checkout")
	cmd.Flags().StringVar(&guestName, "guest-name", "", "full name for guest checkout")
	return cmd
}

func ordersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders [id]",
		Short: "Show order history, or one order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			session := a.auth.Session()
			if !session.Authenticated() {
				return fmt.Errorf("log in to see your orders")
			}

			if len(args) == 1 {
				order, err := a.api.GetOrder(cmd.Context(), session.Token, args[0])
				if err != nil {
					return err
				}
				if order == nil {
					fmt.Println("Order not found.")
					return nil
				}
				printOrder(*order)
				return nil
			}

			orders, err := a.api.MyOrders(cmd.Context(), session.Token)
			if err != nil {
				return err
			}
			for _, order := range orders {
				fmt.Printf("%-26s %s  %12s  %s\n", order.ID, order.CreatedAt.Format("2006-01-02"), formatVND(order.TotalAmount), order.PaymentStatus)
			}
			return nil
		},
	}
}

func printOrder(order model.Order) {
	fmt.Printf("Order %s (%s)\n", order.ID, order.PaymentStatus)
	for _, item := range order.Items {
		fmt.Printf("  %3d × %-30s %12s\n", item.Quantity, item.Name, formatVND(item.Price))
	}
	fmt.Printf("Items %s, shipping %s, total %s\n", formatVND(order.ItemsPrice), formatVND(order.ShippingPrice), formatVND(order.TotalAmount))
	fmt.Printf("Deliver to %s, %s, %s\n", order.ShippingAddress.FullName, order.ShippingAddress.Address, order.ShippingAddress.City)
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(*cobra.Command, []string) error {
			session := a.auth.Session()
			if !session.Authenticated() {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s <%s>\n", session.User.Name, session.User.Email)
			return nil
		},
	}
}

// formatVND renders an amount in Vietnamese đồng with dot thousand
// separators, e.g. 250000 -> "250.000 ₫".
func formatVND(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := b.String() + " ₫"
	if negative {
		out = "-" + out
	}
	return out
}
