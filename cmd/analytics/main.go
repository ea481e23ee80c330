// cmd/analytics/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ahmadmuradi/electronics-store/internal/artifact"
	"github.com/ahmadmuradi/electronics-store/internal/cache"
	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/forecast"
	"github.com/ahmadmuradi/electronics-store/internal/pricing"
	"github.com/ahmadmuradi/electronics-store/internal/reorder"
	"github.com/ahmadmuradi/electronics-store/internal/repository/postgres"
)

// engine bundles the analytics components a CLI command needs.
type engine struct {
	db         *postgres.DB
	manager    *forecast.Manager
	estimator  *pricing.Estimator
	optimizer  *pricing.Optimizer
	calculator *reorder.Calculator
	suggester  *reorder.Suggester
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newProductFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "product",
		Usage:    "Product id",
		Required: true,
	}
}

func buildEngine(c *cli.Context) (*engine, error) {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, err
	}

	cfg := config.Load()
	salesRepo := postgres.NewSalesRepository(db)
	stockRepo := postgres.NewStockRepository(db)

	store, err := artifact.NewFSStore(cfg.Artifacts.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	fc := cache.NewNoopForecastCache()
	manager := forecast.NewManager(salesRepo, store, fc, cfg.Forecast)
	estimator := pricing.NewEstimator(salesRepo, fc)
	calculator := reorder.NewCalculator(salesRepo, manager, cfg.Reorder)

	return &engine{
		db:         db,
		manager:    manager,
		estimator:  estimator,
		optimizer:  pricing.NewOptimizer(salesRepo, estimator),
		calculator: calculator,
		suggester:  reorder.NewSuggester(stockRepo, calculator, cfg.Reorder),
	}, nil
}

func withEngine(fn func(ctx context.Context, e *engine, c *cli.Context) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := buildEngine(c)
		if err != nil {
			return err
		}
		defer e.db.Close()

		result, err := fn(c.Context, e, c)
		if err != nil {
			return err
		}
		return printJSON(result)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func optionalLocation(c *cli.Context) *int64 {
	if !c.IsSet("location") {
		return nil
	}
	id := c.Int64("location")
	return &id
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Demand forecasting and inventory optimization tools",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "Train the demand model for one product",
				Flags: []cli.Flag{newDBURLFlag(), newProductFlag()},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.manager.Train(ctx, c.Int64("product"))
				}),
			},
			{
				Name:  "train-all",
				Usage: "Train demand models for every product with sales",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "location", Usage: "Limit to one location"},
				},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.manager.TrainAll(ctx, optionalLocation(c))
				}),
			},
			{
				Name:  "forecast",
				Usage: "Forecast daily demand for a product",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newProductFlag(),
					&cli.IntFlag{Name: "days", Usage: "Forecast horizon in days", Value: 30},
				},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.manager.Predict(ctx, c.Int64("product"), c.Int("days"))
				}),
			},
			{
				Name:  "elasticity",
				Usage: "Estimate price elasticity of demand for a product",
				Flags: []cli.Flag{newDBURLFlag(), newProductFlag()},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.estimator.Estimate(ctx, c.Int64("product"))
				}),
			},
			{
				Name:  "optimize-price",
				Usage: "Suggest a profit-maximizing price for a product",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newProductFlag(),
					&cli.Float64Flag{Name: "cost", Usage: "Unit cost fallback when the catalog has none"},
					&cli.Float64Flag{Name: "target-margin", Usage: "Target gross margin", Value: 0.3},
				},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.optimizer.Optimize(ctx, c.Int64("product"), c.Float64("cost"), c.Float64("target-margin"))
				}),
			},
			{
				Name:  "reorder",
				Usage: "Calculate the reorder point for a product at a location",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newProductFlag(),
					&cli.Int64Flag{Name: "location", Usage: "Location id", Required: true},
					&cli.Float64Flag{Name: "service-level", Usage: "Target service level", Value: 0.95},
				},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.calculator.Calculate(ctx, c.Int64("product"), c.Int64("location"), c.Float64("service-level"))
				}),
			},
			{
				Name:  "suggestions",
				Usage: "Generate ranked reorder suggestions for low stock",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "location", Usage: "Limit to one location"},
				},
				Action: withEngine(func(ctx context.Context, e *engine, c *cli.Context) (any, error) {
					return e.suggester.Generate(ctx, optionalLocation(c))
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
