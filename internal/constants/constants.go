package constants

// Application constants
const (
	Name        = "PlantEvolve-Go"
	Version     = "1.0.0"
	Description = "Evolutionary placement of circular plants inside a bounded garden domain"

	// Default evolution values
	DefaultPopulationSize       = 100
	DefaultGenerations          = 200
	DefaultMaxAttempts          = 5
	DefaultCrossoverProbability = 0.8
	DefaultMutationProbability  = 0.05
	DefaultEliteCount           = 1
	DefaultTournamentSize       = 3
	DefaultWorkers              = 4
	DefaultTimeout              = 0 // seconds, 0 = no limit

	// Default fitness weights
	DefaultBaseScore     = 1000.0
	DefaultDomainWeight  = 100.0
	DefaultOverlapWeight = 10.0

	// Default garden
	DefaultDomainType   = "rectangle"
	DefaultDomainWidth  = 20.0
	DefaultDomainHeight = 10.0

	// Selection strategies
	SelectionTournament = "tournament"
	SelectionRoulette   = "roulette"
	SelectionRank       = "rank"

	// Export formats
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	// Store backends
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"

	// Directory and file names
	OutputDir     = "plantevolve_output"
	RunsDir       = "runs"
	LatestFile    = "latest.json"
	SQLiteFile    = "plantevolve.db"
	BadgerDir     = "badger"
	DefaultExport = "layout"
	XLSXSheetName = "Layout"

	// Exit codes
	ExitSuccess    = 0
	ExitError      = 1
	ExitInterrupt  = 2
	ExitBestEffort = 3
)
