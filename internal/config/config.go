package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full toolkit configuration
type Config struct {
	Structure  StructureConfig  `mapstructure:"structure"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Formatting FormattingConfig `mapstructure:"formatting"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
	Columns    ColumnsConfig    `mapstructure:"columns"`
	Entities   map[string]EntityTableConfig `mapstructure:"entities"`
	Web        WebConfig        `mapstructure:"web"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// StructureConfig declares the project directory layout. All relative
// paths are resolved against ProjectRoot.
type StructureConfig struct {
	ProjectRoot  string `mapstructure:"project_root"`
	DataPath     string `mapstructure:"data_path"`
	TmpPath      string `mapstructure:"tmp_path"`
	OutputPath   string `mapstructure:"output_path"`
	TemplatePath string `mapstructure:"template_path"`
	ImportsPath  string `mapstructure:"imports_path"`
	FontPath     string `mapstructure:"font_path"`
}

// DatabaseConfig names the tabular data sources
type DatabaseConfig struct {
	SourceWorkbook  string        `mapstructure:"source_workbook"`
	SheetName       string        `mapstructure:"sheet_name"`
	MasterWorkbook  string        `mapstructure:"master_workbook"`
	ClientTableName string        `mapstructure:"client_table_name"`
	SQLiteName      string        `mapstructure:"sqlite_name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FormattingConfig holds the business locale constants
type FormattingConfig struct {
	Locale         string `mapstructure:"locale"`
	Currency       string `mapstructure:"currency"`
	CurrencyFormat string `mapstructure:"currency_format"`
	DateFormat     string `mapstructure:"date_format"`
	NumericFormat  string `mapstructure:"numeric_format"`
}

// ProviderConfig describes the service provider printed on every invoice
type ProviderConfig struct {
	Name    string `mapstructure:"name"`
	Street  string `mapstructure:"street"`
	ZipCity string `mapstructure:"zip_city"`
	IBAN    string `mapstructure:"iban"`
}

// TemplatesConfig declares the document templates and the timesheet
// layout. Header cell addresses and the row mapping must stay in sync
// with the timesheet template; the factory writes through the same
// addresses the importer reads from.
type TemplatesConfig struct {
	InvoiceTemplate    string            `mapstructure:"invoice_template"`
	SlipImageEntry     string            `mapstructure:"slip_image_entry"`
	TimesheetTemplate  string            `mapstructure:"timesheet_template"`
	TimesheetSheetName string            `mapstructure:"timesheet_sheet_name"`
	HeaderCells        HeaderCellsConfig `mapstructure:"header_cells"`
	RowMapping         RowMappingConfig  `mapstructure:"row_mapping"`
	DataStartCell      string            `mapstructure:"data_start_cell"`
	DataEndCell        string            `mapstructure:"data_end_cell"`
}

// HeaderCellsConfig holds the fixed cell addresses of the timesheet
// header block.
type HeaderCellsConfig struct {
	EmployeeName   string `mapstructure:"employee_name"`
	EmployeeID     string `mapstructure:"employee_id"`
	ReportingMonth string `mapstructure:"reporting_month"`
	AllowedHours   string `mapstructure:"allowed_hours"`
	ServiceType    string `mapstructure:"service_type"`
	ShortCode      string `mapstructure:"short_code"`
	ClientID       string `mapstructure:"client_id"`
}

// RowMappingConfig maps position row fields to column letters
type RowMappingConfig struct {
	ServiceTime    string `mapstructure:"service_time"`
	ServiceDate    string `mapstructure:"service_date"`
	TravelTime     string `mapstructure:"travel_time"`
	TravelDistance string `mapstructure:"travel_distance"`
	DirectTime     string `mapstructure:"direct_time"`
	IndirectTime   string `mapstructure:"indirect_time"`
	BillableHours  string `mapstructure:"billable_hours"`
	Notes          string `mapstructure:"notes"`
}

// ColumnSpec describes one expected column of the source table. Field
// names the canonical record field behind the column so rows loaded from
// the staging database render into the same table shape.
type ColumnSpec struct {
	Name       string `mapstructure:"name"`
	Field      string `mapstructure:"field"`
	Type       string `mapstructure:"type"` // string, numeric, currency, date
	Format     string `mapstructure:"format"`
	IsPosition bool   `mapstructure:"is_position"`
	Sum        bool   `mapstructure:"sum"`
	Decimals   int    `mapstructure:"decimals"`
}

// ColumnsConfig declares the expected source columns per section plus
// the grouping keys.
type ColumnsConfig struct {
	PayerKey  string       `mapstructure:"payer_key"`
	ClientKey string       `mapstructure:"client_key"`
	Payer     []ColumnSpec `mapstructure:"payer"`
	Client    []ColumnSpec `mapstructure:"client"`
	General   []ColumnSpec `mapstructure:"general"`
}

// FieldSpec maps one Excel column of a master data table to a target
// database field.
type FieldSpec struct {
	Column     string `mapstructure:"column"`
	Field      string `mapstructure:"field"`
	Type       string `mapstructure:"type"` // str, float, int, bool
	PrimaryKey bool   `mapstructure:"primary_key"`
}

// EntityTableConfig maps a named Excel table to a SQLite target table
type EntityTableConfig struct {
	ExcelTable string      `mapstructure:"excel_table"`
	Target     string      `mapstructure:"target"`
	Fields     []FieldSpec `mapstructure:"fields"`
}

// WebConfig holds the launcher UI configuration
type WebConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	BinaryPath string `mapstructure:"binary_path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("structure.data_path", "data")
	viper.SetDefault("structure.tmp_path", "tmp")
	viper.SetDefault("structure.output_path", "output")
	viper.SetDefault("structure.template_path", "templates")
	viper.SetDefault("structure.imports_path", "data_imports")
	viper.SetDefault("structure.font_path", "/usr/share/fonts/truetype/msttcorefonts")

	viper.SetDefault("database.sqlite_name", "wegpiraten.db")
	viper.SetDefault("database.max_open_conns", 5)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("formatting.locale", "de_CH")
	viper.SetDefault("formatting.currency", "CHF")
	viper.SetDefault("formatting.currency_format", `#,##0.00 "CHF"`)
	viper.SetDefault("formatting.date_format", "DD.MM.YYYY")
	viper.SetDefault("formatting.numeric_format", "#,##0.00")

	// Timesheet layout: header block in C5..G8, positions in A10:H28.
	// These addresses mirror the shipped timesheet template.
	viper.SetDefault("templates.header_cells.employee_name", "C5")
	viper.SetDefault("templates.header_cells.employee_id", "G5")
	viper.SetDefault("templates.header_cells.reporting_month", "C6")
	viper.SetDefault("templates.header_cells.allowed_hours", "C7")
	viper.SetDefault("templates.header_cells.service_type", "G7")
	viper.SetDefault("templates.header_cells.short_code", "C8")
	viper.SetDefault("templates.header_cells.client_id", "G8")
	viper.SetDefault("templates.row_mapping.service_time", "A")
	viper.SetDefault("templates.row_mapping.service_date", "B")
	viper.SetDefault("templates.row_mapping.travel_time", "C")
	viper.SetDefault("templates.row_mapping.travel_distance", "D")
	viper.SetDefault("templates.row_mapping.direct_time", "E")
	viper.SetDefault("templates.row_mapping.indirect_time", "F")
	viper.SetDefault("templates.row_mapping.billable_hours", "G")
	viper.SetDefault("templates.row_mapping.notes", "H")
	viper.SetDefault("templates.slip_image_entry", "word/media/image1.png")
	viper.SetDefault("templates.data_start_cell", "A10")
	viper.SetDefault("templates.data_end_cell", "H28")

	viper.SetDefault("columns.payer_key", "ZDNR")
	viper.SetDefault("columns.client_key", "Klient-Nr.")

	viper.SetDefault("web.host", "127.0.0.1")
	viper.SetDefault("web.port", 5000)
	viper.SetDefault("web.binary_path", "billing")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("provider.iban", "PROVIDER_IBAN")
	viper.BindEnv("web.host", "BILLING_WEB_HOST")
	viper.BindEnv("web.port", "BILLING_WEB_PORT")
	viper.BindEnv("logger.level", "BILLING_LOG_LEVEL")
}

// Validate checks structural preconditions once. Anything that passes
// here is trusted by the batch drivers afterwards.
func (c *Config) Validate() error {
	if c.Structure.ProjectRoot == "" {
		return fmt.Errorf("structure.project_root is required")
	}
	if _, err := os.Stat(c.Structure.ProjectRoot); err != nil {
		return fmt.Errorf("project root not found: %s", c.Structure.ProjectRoot)
	}
	if _, err := os.Stat(c.DataDir()); err != nil {
		return fmt.Errorf("data directory not found: %s", c.DataDir())
	}
	if c.Database.SQLiteName == "" {
		return fmt.Errorf("database.sqlite_name is required")
	}
	if c.Templates.TimesheetTemplate == "" {
		return fmt.Errorf("templates.timesheet_template is required")
	}
	if c.Templates.DataStartCell == "" || c.Templates.DataEndCell == "" {
		return fmt.Errorf("templates.data_start_cell and data_end_cell are required")
	}
	if c.Columns.PayerKey == "" || c.Columns.ClientKey == "" {
		return fmt.Errorf("columns.payer_key and columns.client_key are required")
	}
	for section, cols := range map[string][]ColumnSpec{
		"payer":   c.Columns.Payer,
		"client":  c.Columns.Client,
		"general": c.Columns.General,
	} {
		for _, col := range cols {
			switch col.Type {
			case "string", "numeric", "currency", "date":
			default:
				return fmt.Errorf("unknown column type %q for %q in columns.%s", col.Type, col.Name, section)
			}
		}
	}
	return nil
}

// DataDir returns the resolved data directory
func (c *Config) DataDir() string {
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.DataPath)
}

// TmpDir returns the resolved temp directory
func (c *Config) TmpDir() string {
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.TmpPath)
}

// OutputDir returns the resolved output directory
func (c *Config) OutputDir() string {
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.OutputPath)
}

// TemplateDir returns the resolved template directory
func (c *Config) TemplateDir() string {
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.TemplatePath)
}

// ImportsDir returns the resolved imports directory
func (c *Config) ImportsDir() string {
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.ImportsPath)
}

// SQLitePath returns the resolved path of the staging database
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir(), c.Database.SQLiteName)
}

// SourceWorkbookPath returns the resolved path of the source workbook
func (c *Config) SourceWorkbookPath() string {
	return filepath.Join(c.DataDir(), c.Database.SourceWorkbook)
}

// FontDir returns the font directory, resolved against the project root
// unless it is absolute.
func (c *Config) FontDir() string {
	if filepath.IsAbs(c.Structure.FontPath) {
		return c.Structure.FontPath
	}
	return filepath.Join(c.Structure.ProjectRoot, c.Structure.FontPath)
}

// MasterWorkbookPath returns the resolved path of the master data workbook
func (c *Config) MasterWorkbookPath() string {
	return filepath.Join(c.DataDir(), c.Database.MasterWorkbook)
}

// AllColumns returns the payer, client and general column specs in order
func (c *ColumnsConfig) AllColumns() []ColumnSpec {
	out := make([]ColumnSpec, 0, len(c.Payer)+len(c.Client)+len(c.General))
	out = append(out, c.Payer...)
	out = append(out, c.Client...)
	out = append(out, c.General...)
	return out
}

// PositionColumns returns the columns that form the invoice position table
func (c *ColumnsConfig) PositionColumns() []ColumnSpec {
	var out []ColumnSpec
	for _, col := range c.AllColumns() {
		if col.IsPosition {
			out = append(out, col)
		}
	}
	return out
}

// SumColumns returns the position columns that are aggregated per group
func (c *ColumnsConfig) SumColumns() []ColumnSpec {
	var out []ColumnSpec
	for _, col := range c.AllColumns() {
		if col.IsPosition && col.Sum {
			out = append(out, col)
		}
	}
	return out
}

// CostColumn names the currency column whose group total becomes the
// invoice amount. Empty when no currency column is summed.
func (c *ColumnsConfig) CostColumn() string {
	for _, col := range c.SumColumns() {
		if col.Type == "currency" {
			return col.Name
		}
	}
	return ""
}
