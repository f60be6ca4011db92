package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	ExportDir      string // carpeta donde se escriben los PDF/Excel
	QueryTimeout   time.Duration
	Production     bool

	Analysis AnalysisConfig
}

// AnalysisConfig holds the business assumptions used by the analysis
// pipelines. They are estimates, not accounting data.
type AnalysisConfig struct {
	OperatingCostRate     float64 // profitability: share of revenue spent on operations
	FixedCostRate         float64 // break-even per product/category
	BusinessFixedCostRate float64 // break-even for the whole business
	NearBreakEvenRatio    float64 // "Cerca" when projected units reach this share of break-even
	ParetoThreshold       float64 // % of value the top 20% must hold for the Pareto rule
	DefaultTopN           int
	LowStockThreshold     float64
}

const defaultDSN = "pos-analytics.db"

func Load() *Config {
	// .env es opcional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] no se pudo leer .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		ExportDir:      getEnv("EXPORT_DIR", "./exports"),
		QueryTimeout:   time.Duration(getEnvInt("QUERY_TIMEOUT", 15)) * time.Second,
		Production:     getEnv("APP_ENV", "development") == "production",
		Analysis:       loadAnalysis(),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET no está definido")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		log.Fatalf("[FATAL] DATABASE_DRIVER inválido: %q (postgres | sqlite)", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN usa el valor por defecto:", defaultDSN)
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS usa el valor por defecto, define tu dominio en producción")
	}

	return cfg
}

// DefaultAnalysis returns the analysis assumptions without reading the
// environment.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		OperatingCostRate:     0.12,
		FixedCostRate:         0.20,
		BusinessFixedCostRate: 0.25,
		NearBreakEvenRatio:    0.70,
		ParetoThreshold:       75,
		DefaultTopN:           20,
		LowStockThreshold:     5,
	}
}

func loadAnalysis() AnalysisConfig {
	def := DefaultAnalysis()
	return AnalysisConfig{
		OperatingCostRate:     getEnvRate("ANALYSIS_OPERATING_COST_RATE", def.OperatingCostRate),
		FixedCostRate:         getEnvRate("ANALYSIS_FIXED_COST_RATE", def.FixedCostRate),
		BusinessFixedCostRate: getEnvRate("ANALYSIS_BUSINESS_FIXED_COST_RATE", def.BusinessFixedCostRate),
		NearBreakEvenRatio:    getEnvRate("ANALYSIS_NEAR_BREAK_EVEN_RATIO", def.NearBreakEvenRatio),
		ParetoThreshold:       getEnvFloat("ANALYSIS_PARETO_THRESHOLD", def.ParetoThreshold),
		DefaultTopN:           getEnvInt("ANALYSIS_DEFAULT_TOP_N", def.DefaultTopN),
		LowStockThreshold:     getEnvFloat("LOW_STOCK_THRESHOLD", def.LowStockThreshold),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[WARN] %s inválido (%q), se usa el valor por defecto: %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("[WARN] %s inválido (%q), se usa el valor por defecto: %v", key, v, def)
		return def
	}
	return f
}

// rates must stay within [0, 1)
func getEnvRate(key string, def float64) float64 {
	f := getEnvFloat(key, def)
	if f >= 1 {
		log.Printf("[WARN] %s debe ser menor que 1, se usa el valor por defecto: %v", key, def)
		return def
	}
	return f
}
