package config

// Application constants shared across transports and services
const (
	// Application Info
	AppName   = "PyGrays Report Engine"
	AppVendor = "Grays"

	// Source File Patterns
	AgingExtractPrefix  = "Sales Aged Balance - "
	DealsFilePattern    = `^Deals\d{8}\.txt$`
	DropshipFilePattern = `^DropshipSales\d{8}\.txt$`
	SourceDateLayout    = "20060102" // YYYYMMDD embedded in deals and dropship names
	PaymentExtractSheet = "Payments Extract"

	// Response Media Types
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeZip  = "application/zip"
	ContentTypeJSON = "application/json"

	// API Endpoints (internal)
	APIBasePath            = "/api"
	AgingReportEndpoint    = "/api/aging-reports/process"
	InventoryEndpoint      = "/api/inventory/uploadfiles"
	BankStatementEndpoint  = "/api/bank-statement/process"
	PaymentExtractEndpoint = "/api/payment-extract/process"
	HealthEndpoint         = "/api/health"
	VersionEndpoint        = "/api/version"
	MetricsEndpoint        = "/metrics"
)

// Upload extension allow lists, keyed by form field semantics. Every
// transport and the CLI validate source files against these before any
// bytes reach a service.
var (
	CSVExtensions      = []string{".csv"}
	TextExtensions     = []string{".txt"}
	WorkbookExtensions = []string{".xls", ".xlsx"}
	MappingExtensions  = []string{".csv", ".txt"}
)
