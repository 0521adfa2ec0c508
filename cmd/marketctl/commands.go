package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/seed"
)

func runSeed(e *env, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: seed takes no arguments", errUsage)
	}
	result, err := e.deps.Market.Migrator.EnsureMigrated(seed.Default{})
	if err != nil {
		return err
	}
	return e.print(result)
}

func runProducts(e *env, args []string) error {
	sub, rest, err := subcommand(args, "products")
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		fs := flags("products list")
		seller := fs.String("seller", "", "seller mobile number")
		withStats := fs.Bool("stats", false, "include ledger statistics (requires -seller)")
		if err := parse(fs, rest); err != nil {
			return err
		}
		switch {
		case *withStats && *seller == "":
			return fmt.Errorf("%w: -stats requires -seller", errUsage)
		case *withStats:
			return e.print(e.deps.Market.Stats.ProductsWithStats(*seller))
		case *seller != "":
			return e.print(e.deps.Market.Catalog.ListBySeller(*seller))
		default:
			return e.print(e.deps.Market.Catalog.ListAll())
		}

	case "get":
		fs := flags("products get")
		if err := parse(fs, rest); err != nil {
			return err
		}
		id, err := singleArg(fs, "product id")
		if err != nil {
			return err
		}
		product, err := e.deps.Market.Stats.ProductStats(id)
		if err != nil {
			return err
		}
		return e.print(product)

	case "add":
		return addProduct(e, rest)

	case "update":
		if len(rest) < 2 {
			return fmt.Errorf("%w: products update requires an id and at least one field=value", errUsage)
		}
		fields := make(map[string]string, len(rest)-1)
		for _, pair := range rest[1:] {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("%w: expected field=value, got %q", errUsage, pair)
			}
			fields[key] = value
		}
		patch, err := domain.ParseProductPatch(fields)
		if err != nil {
			return err
		}
		product, err := e.deps.Market.Catalog.Update(rest[0], patch)
		if err != nil {
			return err
		}
		return e.print(product)

	case "delete":
		fs := flags("products delete")
		if err := parse(fs, rest); err != nil {
			return err
		}
		id, err := singleArg(fs, "product id")
		if err != nil {
			return err
		}
		if err := e.deps.Market.Catalog.Remove(id); err != nil {
			return err
		}
		return e.print(map[string]string{"deleted": id})
	}

	return fmt.Errorf("%w: unknown products subcommand %q", errUsage, sub)
}

func addProduct(e *env, args []string) error {
	fs := flags("products add")
	seller := fs.String("seller", "", "seller mobile number (default: logged in user)")
	name := fs.String("name", "", "product name")
	unit := fs.String("unit", string(domain.UnitKilogram), "unit of measure")
	price := fs.String("price", "", "price per unit")
	stock := fs.Int64("stock", 0, "current stock")
	initial := fs.Int64("initial", 0, "initial stock (default: current stock)")
	image := fs.String("image", "", "image url (default: looked up by name)")
	date := fs.String("date", "", "created date YYYY-MM-DD (default: today)")
	if err := parse(fs, args); err != nil {
		return err
	}

	mobile, err := e.sessionMobile(*seller)
	if err != nil {
		return err
	}
	parsedUnit, err := domain.ParseUnit(*unit)
	if err != nil {
		return err
	}
	pricePerUnit, err := parseDecimal("price", *price)
	if err != nil {
		return err
	}

	product, err := e.deps.Market.Catalog.Add(domain.ProductDraft{
		SellerMobileNumber: mobile,
		Name:               *name,
		ImageURL:           *image,
		Unit:               parsedUnit,
		PricePerUnit:       pricePerUnit,
		InitialStock:       *initial,
		CurrentStock:       *stock,
		CreatedDate:        *date,
	})
	if err != nil {
		return err
	}
	return e.print(product)
}

func runOrders(e *env, args []string) error {
	sub, rest, err := subcommand(args, "orders")
	if err != nil {
		return err
	}

	switch sub {
	case "create":
		fs := flags("orders create")
		buyer := fs.String("buyer", "", "buyer mobile number (default: logged in user)")
		seller := fs.String("seller", "", "expected seller mobile number")
		product := fs.String("product", "", "product id")
		qty := fs.Int64("qty", 0, "quantity ordered")
		price := fs.String("price", "", "price per unit (default: current product price)")
		if err := parse(fs, rest); err != nil {
			return err
		}
		mobile, err := e.sessionMobile(*buyer)
		if err != nil {
			return err
		}
		var pricePerUnit decimal.Decimal
		if *price != "" {
			if pricePerUnit, err = parseDecimal("price", *price); err != nil {
				return err
			}
		}

		order, err := e.deps.Market.Ledger.Create(domain.OrderDraft{
			BuyerMobileNumber:  mobile,
			SellerMobileNumber: *seller,
			ProductID:          *product,
			QuantityOrdered:    *qty,
			PricePerUnit:       pricePerUnit,
		})
		if errors.Is(err, domain.ErrStockOutOfSync) {
			// заказ записан: показываем его и сообщаем о расхождении
			if printErr := e.print(order); printErr != nil {
				return printErr
			}
		}
		if err != nil {
			return err
		}
		return e.print(order)

	case "get":
		fs := flags("orders get")
		if err := parse(fs, rest); err != nil {
			return err
		}
		id, err := singleArg(fs, "order id")
		if err != nil {
			return err
		}
		order, err := e.deps.Market.Ledger.Get(id)
		if err != nil {
			return err
		}
		return e.print(order)

	case "list":
		fs := flags("orders list")
		seller := fs.String("seller", "", "filter by seller")
		buyer := fs.String("buyer", "", "filter by buyer")
		product := fs.String("product", "", "filter by product")
		if err := parse(fs, rest); err != nil {
			return err
		}
		set := 0
		for _, v := range []string{*seller, *buyer, *product} {
			if v != "" {
				set++
			}
		}
		ledger := e.deps.Market.Ledger
		switch {
		case set > 1:
			return fmt.Errorf("%w: use only one of -seller, -buyer, -product", errUsage)
		case *seller != "":
			return e.print(ledger.ListBySeller(*seller))
		case *buyer != "":
			return e.print(ledger.ListByBuyer(*buyer))
		case *product != "":
			return e.print(ledger.ListByProduct(*product))
		default:
			return e.print(ledger.ListAll())
		}
	}

	return fmt.Errorf("%w: unknown orders subcommand %q", errUsage, sub)
}

func runStats(e *env, args []string) error {
	fs := flags("stats")
	seller := fs.String("seller", "", "seller mobile number (default: logged in user)")
	if err := parse(fs, args); err != nil {
		return err
	}
	mobile, err := e.sessionMobile(*seller)
	if err != nil {
		return err
	}
	return e.print(e.deps.Market.Stats.SellerStats(mobile))
}

func runLegacyUser(e *env, args []string) error {
	fs := flags("legacy-user")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: legacy-user takes at most one mobile number", errUsage)
	}
	mobile, err := e.sessionMobile(fs.Arg(0))
	if err != nil {
		return err
	}
	user, err := e.deps.Market.Stats.LegacyUser(mobile)
	if err != nil {
		return err
	}
	return e.print(user)
}

func runReconcile(e *env, args []string) error {
	fs := flags("reconcile")
	check := fs.Bool("check", false, "report drift without writing")
	product := fs.String("product", "", "reconcile a single product")
	if err := parse(fs, args); err != nil {
		return err
	}

	reconciler := e.deps.Market.Reconciler
	switch {
	case *check:
		return e.print(reconciler.Check())
	case *product != "":
		healed, err := reconciler.ReconcileProduct(*product)
		if err != nil {
			return err
		}
		return e.print(map[string]any{"productId": *product, "healed": healed})
	default:
		report, err := reconciler.Reconcile()
		if err != nil {
			return err
		}
		return e.print(report)
	}
}

func runUsers(e *env, args []string) error {
	sub, rest, err := subcommand(args, "users")
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		return e.print(e.deps.Registry.List())
	case "get":
		fs := flags("users get")
		if err := parse(fs, rest); err != nil {
			return err
		}
		mobile, err := singleArg(fs, "mobile number")
		if err != nil {
			return err
		}
		user, err := e.deps.Registry.FindByMobile(mobile)
		if err != nil {
			return err
		}
		return e.print(user)
	}
	return fmt.Errorf("%w: unknown users subcommand %q", errUsage, sub)
}

func runLogin(e *env, args []string) error {
	fs := flags("login")
	role := fs.String("role", "", "farmer or consumer")
	if err := parse(fs, args); err != nil {
		return err
	}
	mobile, err := singleArg(fs, "mobile number")
	if err != nil {
		return err
	}

	if err := e.deps.Session.SetMobileNumber(mobile); err != nil {
		return err
	}
	if *role != "" {
		if err := e.deps.Session.SetRole(domain.Role(*role)); err != nil {
			return err
		}
	}
	return runWhoami(e, nil)
}

func runLogout(e *env, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: logout takes no arguments", errUsage)
	}
	if err := e.deps.Session.Clear(); err != nil {
		return err
	}
	return runWhoami(e, nil)
}

func runWhoami(e *env, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: whoami takes no arguments", errUsage)
	}
	mobile, _ := e.deps.Session.MobileNumber()
	role, _ := e.deps.Session.Role()
	return e.print(map[string]any{
		"authenticated": e.deps.Session.IsAuthenticated(),
		"mobileNumber":  mobile,
		"role":          role,
	})
}

func runUnits(e *env, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: units takes no arguments", errUsage)
	}
	return e.print(domain.Units())
}

func runOutbox(e *env, args []string) error {
	sub, rest, err := subcommand(args, "outbox")
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: outbox %s takes no arguments", errUsage, sub)
	}

	switch sub {
	case "stats":
		stats, err := e.deps.Outbox.Stats()
		if err != nil {
			return err
		}
		out := map[string]any{"pending": stats.PendingCount, "failed": len(e.deps.Outbox.Failed())}
		if !stats.OldestPendingAt.IsZero() {
			out["oldestPendingAt"] = stats.OldestPendingAt
		}
		return e.print(out)
	case "failed":
		return e.print(e.deps.Outbox.Failed())
	case "requeue":
		count, err := e.deps.Outbox.Requeue()
		if err != nil {
			return err
		}
		return e.print(map[string]int{"requeued": count})
	}
	return fmt.Errorf("%w: unknown outbox subcommand %q", errUsage, sub)
}

func parseDecimal(name, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: -%s: %v", errUsage, name, err)
	}
	return value, nil
}
