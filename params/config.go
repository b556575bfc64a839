package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Market controls the simulation side of the engine.
type Market struct {
	// TickInterval is the simulation clock period.
	TickInterval time.Duration
	// PriceFloor replaces any price a tick would drive to zero or below.
	PriceFloor decimal.Decimal
	// NewsEnabled toggles random market-moving headlines.
	NewsEnabled bool
	// Catalog maps tradable symbols to their seed prices.
	Catalog map[string]decimal.Decimal
}

// Trading controls session bootstrap and order validation.
type Trading struct {
	// InitialCash is the stake every new session starts with.
	InitialCash decimal.Decimal
	// MaxOrderQty caps the quantity of a single order.
	MaxOrderQty int64
	// StrictQuantity rejects out-of-range quantities instead of clamping them.
	// The default mirrors the forgiving browser UI: clamp and carry on.
	StrictQuantity bool
}

type Server struct {
	Addr           string
	AllowedOrigins []string
	// JournalFile receives one JSON line per processed order. Empty disables it.
	JournalFile string
	LogFile     string
}

type Config struct {
	Market  Market
	Trading Trading
	Server  Server
}

func Default() Config {
	return Config{
		Market: Market{
			TickInterval: 1500 * time.Millisecond,
			PriceFloor:   decimal.NewFromInt(1),
			NewsEnabled:  true,
			Catalog: map[string]decimal.Decimal{
				"DOGE": decimal.NewFromFloat(4.20),
				"GME":  decimal.NewFromFloat(185.30),
				"SHIB": decimal.NewFromFloat(0.0012),
				"ELON": decimal.NewFromFloat(0.0032),
			},
		},
		Trading: Trading{
			InitialCash:    decimal.NewFromInt(10000),
			MaxOrderQty:    10000,
			StrictQuantity: false,
		},
		Server: Server{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			JournalFile:    "data/orders.log",
			LogFile:        "data/marketd.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("TICK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Market.TickInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PRICE_FLOOR"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.Sign() > 0 {
			cfg.Market.PriceFloor = d
		}
	}
	if v := os.Getenv("NEWS_ENABLED"); v != "" {
		cfg.Market.NewsEnabled = v == "true"
	}
	if v := os.Getenv("CATALOG"); v != "" {
		if catalog := ParseCatalog(v); len(catalog) > 0 {
			cfg.Market.Catalog = catalog
		}
	}

	if v := os.Getenv("INITIAL_CASH"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.Sign() >= 0 {
			cfg.Trading.InitialCash = d
		}
	}
	if v := os.Getenv("MAX_ORDER_QTY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Trading.MaxOrderQty = n
		}
	}
	if v := os.Getenv("ORDER_STRICT_QTY"); v != "" {
		cfg.Trading.StrictQuantity = v == "true"
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("ORDER_JOURNAL"); v != "" {
		cfg.Server.JournalFile = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Server.LogFile = v
	}

	return cfg
}

// ParseCatalog parses "DOGE=4.20,GME=185.30" into a symbol→seed price map.
// Malformed entries are skipped rather than failing the whole catalog.
func ParseCatalog(s string) map[string]decimal.Decimal {
	catalog := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(s, ",") {
		sym, price, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(price))
		if err != nil || d.Sign() < 0 {
			continue
		}
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		catalog[sym] = d
	}
	return catalog
}
