package main

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Create the store schema and load demo data",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the products, locations, and sales tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runSchema,
			},
			{
				Name:  "demo",
				Usage: "Generate a year of synthetic sales for demo products",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "products", Usage: "Number of demo products", Value: 10},
					&cli.IntFlag{Name: "days", Usage: "Days of sales history", Value: 365},
					&cli.Int64Flag{Name: "seed", Usage: "Random seed", Value: 42},
				},
				Action: runDemo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		cost NUMERIC(12,2),
		reorder_level NUMERIC(12,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS product_locations (
		product_id BIGINT NOT NULL REFERENCES products(id),
		location_id BIGINT NOT NULL REFERENCES locations(id),
		stock_quantity NUMERIC(12,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, location_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGSERIAL PRIMARY KEY,
		location_id BIGINT NOT NULL REFERENCES locations(id),
		sale_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id BIGSERIAL PRIMARY KEY,
		sale_id BIGINT NOT NULL REFERENCES sales(id),
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity NUMERIC(12,2) NOT NULL,
		price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_product ON sale_items(product_id)`,
}

func runSchema(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(c.Context, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	log.Println("schema created")
	return nil
}

type demoProduct struct {
	name       string
	price      float64
	cost       float64
	baseDemand float64
}

var demoProducts = []demoProduct{
	{"Wireless Mouse", 29.99, 12.50, 18},
	{"Mechanical Keyboard", 89.99, 41.00, 9},
	{"27in Monitor", 249.99, 152.00, 4},
	{"USB-C Hub", 49.99, 19.80, 12},
	{"Noise-Cancelling Headphones", 199.99, 98.00, 6},
	{"Webcam 1080p", 69.99, 30.40, 8},
	{"Portable SSD 1TB", 119.99, 67.00, 7},
	{"Smart Speaker", 59.99, 25.30, 11},
	{"Gaming Controller", 54.99, 24.90, 10},
	{"Laptop Stand", 39.99, 14.20, 13},
}

// runDemo writes a year of synthetic sales with weekly and yearly
// seasonality so the forecasting models have real structure to learn.
func runDemo(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := c.Context
	rng := rand.New(rand.NewSource(c.Int64("seed")))
	days := c.Int("days")
	nProducts := c.Int("products")
	if nProducts > len(demoProducts) {
		nProducts = len(demoProducts)
	}

	var locationID int64
	if err := db.QueryRowContext(ctx, `INSERT INTO locations (name) VALUES ('Main Store') RETURNING id`).Scan(&locationID); err != nil {
		return fmt.Errorf("could not insert location: %w", err)
	}

	productIDs := make([]int64, nProducts)
	for i := 0; i < nProducts; i++ {
		p := demoProducts[i]
		if err := db.QueryRowContext(ctx,
			`INSERT INTO products (name, price, cost, reorder_level) VALUES ($1, $2, $3, $4) RETURNING id`,
			p.name, p.price, p.cost, p.baseDemand*7,
		).Scan(&productIDs[i]); err != nil {
			return fmt.Errorf("could not insert product: %w", err)
		}

		stock := p.baseDemand * float64(rng.Intn(10))
		if _, err := db.ExecContext(ctx,
			`INSERT INTO product_locations (product_id, location_id, stock_quantity) VALUES ($1, $2, $3)`,
			productIDs[i], locationID, stock,
		); err != nil {
			return fmt.Errorf("could not insert stock level: %w", err)
		}
	}

	start := time.Now().UTC().AddDate(0, 0, -days)
	inserted := 0

	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)

		var saleID int64
		if err := db.QueryRowContext(ctx,
			`INSERT INTO sales (location_id, sale_date) VALUES ($1, $2) RETURNING id`,
			locationID, date,
		).Scan(&saleID); err != nil {
			return fmt.Errorf("could not insert sale: %w", err)
		}

		for i := 0; i < nProducts; i++ {
			qty := dailyQuantity(demoProducts[i].baseDemand, date, rng)
			if qty <= 0 {
				continue
			}

			price := demoProducts[i].price * (0.9 + 0.2*rng.Float64())
			if _, err := db.ExecContext(ctx,
				`INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
				saleID, productIDs[i], qty, math.Round(price*100)/100,
			); err != nil {
				return fmt.Errorf("could not insert sale item: %w", err)
			}
			inserted++
		}
	}

	log.Printf("seeded %d products, %d days, %d sale lines", nProducts, days, inserted)
	return nil
}

// dailyQuantity draws a demand sample with weekend uplift and a yearly
// seasonal swing around the product's base rate.
func dailyQuantity(base float64, date time.Time, rng *rand.Rand) float64 {
	seasonal := 1 + 0.3*math.Sin(2*math.Pi*float64(date.YearDay())/365)
	weekday := 1.0
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekday = 1.4
	}

	expected := base * seasonal * weekday
	noise := 0.6 + 0.8*rng.Float64()
	return math.Round(expected * noise)
}
