package main

import (
	"fmt"
	"os"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/storefront"
)

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printProducts(products []model.Product) {
	if quiet {
		for _, p := range products {
			fmt.Println(p.ID)
		}
		return
	}
	if len(products) == 0 {
		printWarning("No products found")
		return
	}
	for _, p := range products {
		fmt.Printf("  %s%-16s%s %-40s %s%-12s%s %8s  %s\n",
			colorGray, p.ID, colorReset,
			truncate(p.Name, 40),
			colorBlue, p.Category, colorReset,
			formatMoney(p.Cost),
			stars(p.Rating))
	}
}

func printSearchResult(res catalog.SearchResult) {
	switch res.Status {
	case catalog.StatusOK:
		printSuccess("%d products found", len(res.Products))
	case catalog.StatusRejected:
		printWarning("%s", res.Message)
	case catalog.StatusUnreachable:
		fatal("%s", res.Message)
	}
	printProducts(res.Products)
}

func printView(v *storefront.View) {
	if v == nil {
		return
	}
	if quiet {
		fmt.Println(v.Summary.Total)
		return
	}

	if v.Username != "" {
		fmt.Printf("  %s%s%s  balance %s%s%s\n", colorBold, v.Username, colorReset, colorGreen, formatMoney(v.Balance), colorReset)
	} else {
		printInfo("Not logged in")
	}

	fmt.Printf("\n%sCart%s\n", colorYellow, colorReset)
	if len(v.Items) == 0 {
		fmt.Printf("  %sCart is empty. Add more items to the cart to checkout%s\n", colorGray, colorReset)
	}
	for _, item := range v.Items {
		fmt.Printf("  %s%-16s%s %-40s %3d x %8s = %s\n",
			colorGray, item.ID, colorReset,
			truncate(item.Name, 40),
			item.Quantity,
			formatMoney(item.Cost),
			formatMoney(item.LineTotal()))
	}
	for _, id := range v.Missing {
		printWarning("Product %s is in the cart but not in the catalog", id)
	}

	fmt.Printf("\n%sOrder Details%s\n", colorYellow, colorReset)
	fmt.Printf("  Products        %d\n", v.Summary.Products)
	fmt.Printf("  Subtotal        %s\n", formatMoney(v.Summary.Subtotal))
	fmt.Printf("  Shipping        %s\n", formatMoney(v.Summary.Shipping))
	fmt.Printf("  %sTotal           %s%s\n", colorBold, formatMoney(v.Summary.Total), colorReset)

	if len(v.Addresses.Addresses) > 0 {
		fmt.Printf("\n%sShipping%s\n", colorYellow, colorReset)
		printAddresses(v.Addresses)
	}
}

func printAddresses(sel model.AddressSelection) {
	if quiet {
		for _, a := range sel.Addresses {
			fmt.Println(a.ID)
		}
		return
	}
	if len(sel.Addresses) == 0 {
		fmt.Printf("  %sNo addresses found for this account. Please add one to proceed%s\n", colorGray, colorReset)
		return
	}
	for _, a := range sel.Addresses {
		marker := " "
		if a.ID == sel.SelectedID {
			marker = colorGreen + "*" + colorReset
		}
		fmt.Printf("  %s %s%-24s%s %s\n", marker, colorGray, a.ID, colorReset, a.Text)
	}
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

// formatMoney renders whole currency units.
func formatMoney(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-$%d", -v)
	}
	return fmt.Sprintf("$%d", v)
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return colorYellow + strings.Repeat("★", rating) + colorGray + strings.Repeat("☆", 5-rating) + colorReset
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// fatalErr prints the user-facing message for err and exits. The reason
// code follows in gray so scripts can match on it.
func fatalErr(context string, err error) {
	msg := model.UserMessage(err)
	if code := model.ReasonCode(err); code != model.CodeInternal {
		msg += " " + colorGray + "(" + code + ")" + colorRed
	}
	fatal("%s: %s", context, msg)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
