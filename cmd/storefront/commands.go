package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/storefront"
)

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func runLogin(args []string) {
	fs := newFlagSet("login", "-username NAME -password PASS")
	var username, password string
	fs.StringVar(&username, "username", "", "Username (required)")
	fs.StringVar(&password, "password", os.Getenv("STOREFRONT_PASSWORD"), "Password (default $STOREFRONT_PASSWORD)")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	ctx := context.Background()

	if err := shop.Login(ctx, username, password); err != nil {
		fatalErr("Login failed", err)
	}

	balance, _ := shop.Session.Balance()
	if quiet {
		fmt.Println(shop.Session.Username())
		return
	}
	printSuccess("Logged in successfully")
	fmt.Printf("  User:    %s%s%s\n", colorCyan, shop.Session.Username(), colorReset)
	fmt.Printf("  Balance: %s%s%s\n", colorGreen, formatMoney(balance), colorReset)
}

func runRegister(args []string) {
	fs := newFlagSet("register", "-username NAME -password PASS [-confirm PASS]")
	var username, password, confirm string
	fs.StringVar(&username, "username", "", "Username (required, at least 6 characters)")
	fs.StringVar(&password, "password", os.Getenv("STOREFRONT_PASSWORD"), "Password (at least 6 characters)")
	fs.StringVar(&confirm, "confirm", "", "Password confirmation (defaults to -password)")
	parse(fs, args)

	if confirm == "" {
		confirm = password
	}

	shop, _ := openShop(storefront.Options{})
	if err := shop.Register(context.Background(), username, password, confirm); err != nil {
		fatalErr("Registration failed", err)
	}
	printSuccess("Registered successfully")
	printInfo("Run 'storefront login -username %s' to continue", username)
}

func runLogout(args []string) {
	fs := newFlagSet("logout", "")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	if err := shop.Logout(); err != nil {
		fatalErr("Logout failed", err)
	}
	printSuccess("Logged out")
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	products, err := shop.Catalog.List(context.Background())
	if err != nil {
		fatalErr("Failed to fetch products", err)
	}
	printProducts(products)
}

func runSearch(args []string) {
	fs := newFlagSet("search", "-text T | -type T [-keystroke D]")
	var text, typed string
	var keystroke time.Duration
	fs.StringVar(&text, "text", "", "Run a single search for this text")
	fs.StringVar(&typed, "type", "", "Type this text one character at a time through the debouncer")
	fs.DurationVar(&keystroke, "keystroke", 80*time.Millisecond, "Delay between simulated keystrokes")
	parse(fs, args)

	if (text == "") == (typed == "") {
		fs.Usage()
		os.Exit(1)
	}

	if text != "" {
		shop, _ := openShop(storefront.Options{})
		printSearchResult(shop.Catalog.Search(context.Background(), text))
		return
	}

	results := make(chan catalog.SearchResult, 1)
	shop, cfg := openShop(storefront.Options{
		OnSearch: func(res catalog.SearchResult) {
			select {
			case results <- res:
			default:
			}
		},
	})
	defer shop.Close()

	for i := 1; i <= len(typed); i++ {
		shop.TypeSearch(typed[:i])
		printInfo("typed %q", typed[:i])
		time.Sleep(keystroke)
	}

	select {
	case res := <-results:
		printSearchResult(res)
	case <-time.After(cfg.SearchDebounce + cfg.HTTPTimeout):
		fatal("Search timed out")
	}
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := newFlagSet("cart", "")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	view, err := shop.Enter(context.Background())
	if err != nil {
		printWarning("%s", model.UserMessage(err))
	}
	printView(view)
}

func runAdd(args []string) {
	fs := newFlagSet("add", "-product ID [-qty N]")
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	parse(fs, args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	shop, _ := openShop(storefront.Options{})
	ctx := context.Background()

	// The duplicate check needs the current cart.
	if _, err := shop.Cart.Load(ctx); err != nil {
		fatalErr("Failed to load cart", err)
	}
	if _, err := shop.Cart.AddOrUpdate(ctx, productID, qty, cart.Options{PreventDuplicate: true}); err != nil {
		fatalErr("Failed to add item", err)
	}
	printSuccess("Item added to cart")
	showCart(shop)
}

func runUpdate(args []string) {
	fs := newFlagSet("update", "-product ID -qty N")
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", -1, "New quantity, at least 1 (required)")
	parse(fs, args)

	if productID == "" || qty < 0 {
		fs.Usage()
		os.Exit(1)
	}

	shop, _ := openShop(storefront.Options{})
	if _, err := shop.Cart.AddOrUpdate(context.Background(), productID, qty, cart.Options{}); err != nil {
		fatalErr("Failed to update item", err)
	}
	printSuccess("Cart updated")
	showCart(shop)
}

// showCart prints the cart after a mutation; the catalog is fetched for enrichment.
func showCart(shop *storefront.Shop) {
	if quiet {
		return
	}
	if _, err := shop.Catalog.List(context.Background()); err != nil {
		printWarning("%s", model.UserMessage(err))
	}
	printView(shop.CartView())
}

// =============================================================================
// ADDRESS COMMANDS
// =============================================================================

func runAddresses(args []string) {
	fs := newFlagSet("addresses", "")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	if _, err := shop.Addresses.Load(context.Background()); err != nil {
		fatalErr("Failed to fetch addresses", err)
	}
	printAddresses(shop.Addresses.Selection())
}

func runAddressAdd(args []string) {
	fs := newFlagSet("address-add", "-text ADDRESS")
	var text string
	fs.StringVar(&text, "text", "", "Full address text")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	list, err := shop.Addresses.Add(context.Background(), text)
	if err != nil {
		fatalErr("Failed to add address", err)
	}

	if quiet {
		// The backend appends; the new address is the last one.
		if len(list) > 0 {
			fmt.Println(list[len(list)-1].ID)
		}
		return
	}
	printSuccess("Address added")
	printAddresses(shop.Addresses.Selection())
}

func runAddressRemove(args []string) {
	fs := newFlagSet("address-rm", "-id ID")
	var id string
	fs.StringVar(&id, "id", "", "Address ID (required)")
	parse(fs, args)

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	shop, _ := openShop(storefront.Options{})
	if _, err := shop.Addresses.Remove(context.Background(), id); err != nil {
		fatalErr("Failed to delete address", err)
	}
	printSuccess("Address deleted")
	if !quiet {
		printAddresses(shop.Addresses.Selection())
	}
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "-address ID")
	var addressID string
	fs.StringVar(&addressID, "address", "", "Shipping address ID")
	parse(fs, args)

	shop, _ := openShop(storefront.Options{})
	ctx := context.Background()

	if _, err := shop.Enter(ctx); err != nil {
		fatalErr("Failed to load cart", err)
	}
	shop.Checkout.OnTransition(func(from, to checkout.State) {
		printInfo("checkout %s -> %s", from, to)
	})
	res, err := shop.PlaceOrder(ctx, addressID)
	if res == nil {
		fatalErr("Checkout failed", err)
	}
	if err != nil {
		printWarning("%s", model.UserMessage(err))
	}

	if quiet {
		fmt.Println(res.Balance)
		return
	}
	printSuccess("Order placed successfully")
	fmt.Printf("  Charged: %s%s%s\n", colorGreen, formatMoney(res.Charged), colorReset)
	fmt.Printf("  Balance: %s%s%s\n", colorCyan, formatMoney(res.Balance), colorReset)
}
